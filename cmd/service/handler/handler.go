package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quka-ai/studymate/app/core"
	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
)

// HttpSrv HTTP服务结构
type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

func paramOrError(c *gin.Context, key string) (string, error) {
	val, exist := c.Params.Get(key)
	if !exist || val == "" {
		return "", errors.New("api.Params."+key, i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	return val, nil
}

// readUploadFile reads a multipart file field, reading at most maxSize+1 bytes so
// oversized files are rejected by the logic layer without buffering all of them.
func readUploadFile(c *gin.Context, field string, maxSize int) (*v1.UploadFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, errors.New("api.FormFile."+field, i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	if maxSize > 0 && header.Size > int64(maxSize) {
		return nil, errors.New("api.FormFile.size", i18n.ERROR_FILE_TOO_LARGE, nil).Code(http.StatusRequestEntityTooLarge)
	}

	f, err := header.Open()
	if err != nil {
		return nil, errors.New("api.FormFile.Open", i18n.ERROR_INTERNAL, err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxSize > 0 {
		r = io.LimitReader(f, int64(maxSize)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("api.FormFile.Read", i18n.ERROR_INTERNAL, err)
	}
	return &v1.UploadFile{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
