package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
)

// SubmitAudio expects multipart with a "file" field and an optional "target_language".
func (s *HttpSrv) SubmitAudio(c *gin.Context) {
	noteID, err := paramOrError(c, "note")
	if err != nil {
		response.APIError(c, err)
		return
	}

	file, err := readUploadFile(c, "file", s.Core.Cfg().Audio.MaxUploadSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	if file == nil {
		response.APIError(c, errors.New("api.SubmitAudio.file", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	status, err := v1.NewAudioLogic(c, s.Core).Submit(v1.SubmitAudioArgs{
		NoteID:         noteID,
		TargetLanguage: c.PostForm("target_language"),
		File:           *file,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, status)
}

func (s *HttpSrv) ResumeAudio(c *gin.Context) {
	jobID, err := paramOrError(c, "job")
	if err != nil {
		response.APIError(c, err)
		return
	}

	status, err := v1.NewAudioLogic(c, s.Core).Resume(jobID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, status)
}

func (s *HttpSrv) AudioStatus(c *gin.Context) {
	status, err := v1.NewAudioLogic(c, s.Core).Status()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, status)
}

func (s *HttpSrv) StopAudio(c *gin.Context) {
	if err := v1.NewAudioLogic(c, s.Core).Stop(); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
