package ai

import (
	"context"
	"errors"
	"strings"
)

// Role is the name the generative backend expects for a chat turn.
type Role string

const (
	ROLE_USER  Role = "user"
	ROLE_MODEL Role = "model"
)

const (
	MODEL_BASE_LANGUAGE_EN = "en"
	MODEL_BASE_LANGUAGE_CN = "zh-CN"
)

var (
	ErrOverloaded    = errors.New("model overloaded")
	ErrEmptyResponse = errors.New("empty response content")
	ErrNotSupported  = errors.New("operation not supported by driver")
	ErrNotConfigured = errors.New("ai driver not configured")
)

// InlineData is a file or image sent inline with a request.
type InlineData struct {
	MimeType string
	Data     []byte
}

type Turn struct {
	Role  Role
	Text  string
	Image *InlineData
}

type ChatRequest struct {
	System string
	Turns  []Turn
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type ChatResult struct {
	Content string
	Usage   Usage
}

// NoteDraft 由文档生成的笔记草稿
type NoteDraft struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Content  string   `json:"content"`
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
}

type AudioRequest struct {
	Audio          InlineData
	TargetLanguage string
}

type AudioResult struct {
	Transcript  string `json:"transcript"`
	Summary     string `json:"summary"`
	Translation string `json:"translation"`
}

type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResult, error)
}

// Extractor turns binary documents (pdf, images) into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, file InlineData) (string, error)
}

type DocumentAnalyzer interface {
	AnalyzeStructure(ctx context.Context, title, content string) (string, error)
	GenerateNote(ctx context.Context, title, content string) (NoteDraft, error)
}

type AudioProcessor interface {
	ProcessAudio(ctx context.Context, req AudioRequest) (AudioResult, error)
}

// NormalizeError maps backend specific failures onto the package sentinels.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrOverloaded) || errors.Is(err, ErrEmptyResponse) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "overloaded") || strings.Contains(msg, "resource has been exhausted") {
		return errors.Join(ErrOverloaded, err)
	}
	return err
}

func IsOverloaded(err error) bool {
	return errors.Is(NormalizeError(err), ErrOverloaded)
}
