package v1

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/object-storage/s3"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

const (
	OBJECT_KIND_DOCUMENT = "document"
	OBJECT_KIND_IMAGE    = "image"
	OBJECT_KIND_AUDIO    = "audio"

	MAX_DOCUMENT_SIZE = 20 << 20
	MAX_IMAGE_SIZE    = 10 << 20
)

// UploadFile is a file received from the client, already read into memory.
type UploadFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (f UploadFile) MimeType() string {
	if ct := utils.CleanContentType(f.ContentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return utils.CleanContentType(s3.DetectContentType(f.Data))
}

func randomFileName(fileName string) string {
	ext := path.Ext(fileName)
	name := strings.TrimSuffix(fileName, ext)
	return utils.MD5(fmt.Sprintf("%s%d%s", name, time.Now().UnixNano(), utils.RandomStr(6))) + strings.ToLower(ext)
}

func GenObjectPath(userID, kind, fileName string) string {
	return path.Join(types.FIXED_S3_UPLOAD_PATH_PREFIX, userID, kind, time.Now().Format("200601"), randomFileName(fileName))
}

type storedFile struct {
	FullPath string
	URL      string
	MimeType string
}

func saveUserFile(ctx context.Context, core *core.Core, userID, kind string, file UploadFile, maxSize int) (storedFile, error) {
	if len(file.Data) == 0 {
		return storedFile{}, errors.New("saveUserFile.empty", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if maxSize > 0 && len(file.Data) > maxSize {
		return storedFile{}, errors.New("saveUserFile.size", i18n.ERROR_FILE_TOO_LARGE, nil).Code(http.StatusRequestEntityTooLarge)
	}

	res := storedFile{
		FullPath: GenObjectPath(userID, kind, file.FileName),
		MimeType: file.MimeType(),
	}
	if err := core.FileStorage().SaveFile(ctx, res.FullPath, file.Data, res.MimeType); err != nil {
		return storedFile{}, errors.New("saveUserFile.FileStorage.SaveFile", i18n.ERROR_INTERNAL, err)
	}
	res.URL = core.FileURL(res.FullPath)
	return res, nil
}
