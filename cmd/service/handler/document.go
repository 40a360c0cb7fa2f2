package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
)

func (s *HttpSrv) ListDocuments(c *gin.Context) {
	list, err := v1.NewDocumentLogic(c, s.Core).ListDocuments()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

func (s *HttpSrv) GetDocument(c *gin.Context) {
	id, err := paramOrError(c, "document")
	if err != nil {
		response.APIError(c, err)
		return
	}

	doc, err := v1.NewDocumentLogic(c, s.Core).GetDocument(id)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

// UploadDocument expects multipart with a "file" field and an optional "title".
func (s *HttpSrv) UploadDocument(c *gin.Context) {
	file, err := readUploadFile(c, "file", v1.MAX_DOCUMENT_SIZE)
	if err != nil {
		response.APIError(c, err)
		return
	}
	if file == nil {
		response.APIError(c, errors.New("api.UploadDocument.file", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	doc, err := v1.NewDocumentLogic(c, s.Core).UploadDocument(strings.TrimSpace(c.PostForm("title")), *file)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

func (s *HttpSrv) RefreshDocument(c *gin.Context) {
	id, err := paramOrError(c, "document")
	if err != nil {
		response.APIError(c, err)
		return
	}

	doc, err := v1.NewDocumentLogic(c, s.Core).RefreshDocument(id)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

func (s *HttpSrv) DeleteDocument(c *gin.Context) {
	id, err := paramOrError(c, "document")
	if err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewDocumentLogic(c, s.Core).DeleteDocument(id); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
