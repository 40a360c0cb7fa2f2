package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
	"github.com/quka-ai/studymate/pkg/utils"
)

func (s *HttpSrv) ListChatSessions(c *gin.Context) {
	result, err := v1.NewChatSessionLogic(c, s.Core).ListSessions()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

func (s *HttpSrv) LoadMoreChatSessions(c *gin.Context) {
	result, err := v1.NewChatSessionLogic(c, s.Core).LoadMoreSessions()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type CreateChatSessionRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

func (s *HttpSrv) CreateChatSession(c *gin.Context) {
	var req CreateChatSessionRequest
	// 允许空 body
	if c.Request.ContentLength > 0 {
		if err := utils.BindArgsWithGin(c, &req); err != nil {
			response.APIError(c, err)
			return
		}
	}

	session, err := v1.NewChatSessionLogic(c, s.Core).CreateChatSession(req.DocumentIDs)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, session)
}

type RenameChatSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

func (s *HttpSrv) RenameChatSession(c *gin.Context) {
	sessionID, err := paramOrError(c, "session")
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req RenameChatSessionRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewChatSessionLogic(c, s.Core).RenameChatSession(sessionID, req.Title); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) DeleteChatSession(c *gin.Context) {
	sessionID, err := paramOrError(c, "session")
	if err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewChatSessionLogic(c, s.Core).DeleteChatSession(sessionID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

// SelectChatSession makes the session active and returns its latest messages.
func (s *HttpSrv) SelectChatSession(c *gin.Context) {
	sessionID, err := paramOrError(c, "session")
	if err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewChatSessionLogic(c, s.Core).SelectChatSession(sessionID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type ListChatMessagesRequest struct {
	Before int64 `form:"before"`
}

// ListChatMessages activates the session and returns its buffer; with ?before=<timestamp>
// it returns one page of older history instead and leaves the buffer alone.
func (s *HttpSrv) ListChatMessages(c *gin.Context) {
	sessionID, err := paramOrError(c, "session")
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req ListChatMessagesRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	if req.Before > 0 {
		page, err := v1.NewChatMessageLogic(c, s.Core).ListMessagesBefore(sessionID, req.Before)
		if err != nil {
			response.APIError(c, err)
			return
		}
		response.APISuccess(c, page)
		return
	}

	result, err := v1.NewChatMessageLogic(c, s.Core).ListMessages(sessionID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

func (s *HttpSrv) LoadOlderChatMessages(c *gin.Context) {
	sessionID, err := paramOrError(c, "session")
	if err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewChatMessageLogic(c, s.Core).LoadOlderMessages(sessionID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

func (s *HttpSrv) DeleteChatMessage(c *gin.Context) {
	messageID, err := paramOrError(c, "message")
	if err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewChatMessageLogic(c, s.Core).DeleteMessage(messageID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type SendMessageRequest struct {
	Text        string   `json:"text" form:"text"`
	DocumentIDs []string `json:"document_ids" form:"document_ids"`
	NoteIDs     []string `json:"note_ids" form:"note_ids"`
}

// SendMessage accepts json, or multipart when an image is attached in the "image" field.
func (s *HttpSrv) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	args := v1.SendMessageArgs{
		Text:        req.Text,
		DocumentIDs: req.DocumentIDs,
		NoteIDs:     req.NoteIDs,
	}
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		image, err := readUploadFile(c, "image", v1.MAX_IMAGE_SIZE)
		if err != nil {
			response.APIError(c, err)
			return
		}
		args.Image = image
	}

	result, err := v1.NewChatLogic(c, s.Core).SendMessage(args)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

func (s *HttpSrv) RegenerateMessage(c *gin.Context) {
	messageID, err := paramOrError(c, "message")
	if err != nil {
		response.APIError(c, err)
		return
	}

	msg, err := v1.NewChatLogic(c, s.Core).Regenerate(messageID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, msg)
}

func (s *HttpSrv) ChatStatus(c *gin.Context) {
	status, err := v1.NewChatLogic(c, s.Core).Status()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, status)
}
