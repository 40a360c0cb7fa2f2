package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
	"github.com/quka-ai/studymate/pkg/utils"
)

func (s *HttpSrv) ListNotes(c *gin.Context) {
	list, err := v1.NewNoteLogic(c, s.Core).ListNotes()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

func (s *HttpSrv) GetNote(c *gin.Context) {
	id, err := paramOrError(c, "note")
	if err != nil {
		response.APIError(c, err)
		return
	}

	note, err := v1.NewNoteLogic(c, s.Core).GetNote(id)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, note)
}

type CreateNoteRequest struct {
	Title     string   `json:"title" binding:"required"`
	Category  string   `json:"category"`
	Content   string   `json:"content"`
	AISummary string   `json:"ai_summary"`
	Tags      []string `json:"tags"`
}

func (s *HttpSrv) CreateNote(c *gin.Context) {
	var req CreateNoteRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	note, err := v1.NewNoteLogic(c, s.Core).CreateNote(v1.NoteArgs{
		Title:     req.Title,
		Category:  req.Category,
		Content:   req.Content,
		AISummary: req.AISummary,
		Tags:      req.Tags,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, note)
}

// UpdateNoteRequest 未传的字段保持不变
type UpdateNoteRequest struct {
	Title     *string  `json:"title"`
	Category  *string  `json:"category"`
	Content   *string  `json:"content"`
	AISummary *string  `json:"ai_summary"`
	Tags      []string `json:"tags"`
}

func (s *HttpSrv) UpdateNote(c *gin.Context) {
	id, err := paramOrError(c, "note")
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req UpdateNoteRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	note, err := v1.NewNoteLogic(c, s.Core).UpdateNote(id, v1.UpdateNoteArgs{
		Title:     req.Title,
		Category:  req.Category,
		Content:   req.Content,
		AISummary: req.AISummary,
		Tags:      req.Tags,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, note)
}

func (s *HttpSrv) DeleteNote(c *gin.Context) {
	id, err := paramOrError(c, "note")
	if err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewNoteLogic(c, s.Core).DeleteNote(id); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

// GenerateNote drafts a note from an extracted document.
func (s *HttpSrv) GenerateNote(c *gin.Context) {
	documentID, err := paramOrError(c, "document")
	if err != nil {
		response.APIError(c, err)
		return
	}

	note, err := v1.NewNoteLogic(c, s.Core).GenerateFromDocument(documentID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, note)
}
