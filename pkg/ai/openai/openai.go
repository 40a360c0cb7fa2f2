package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/quka-ai/studymate/pkg/ai"
)

const (
	NAME = "openai"
)

type Driver struct {
	client     *openai.Client
	model      string
	audioModel string
}

func New(token, proxy, model string) *Driver {
	cfg := openai.DefaultConfig(token)
	if proxy != "" {
		cfg.BaseURL = proxy
	}

	if model == "" {
		model = openai.GPT4oMini
	}

	return &Driver{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		audioModel: openai.Whisper1,
	}
}

func (s *Driver) Lang() string {
	return ai.MODEL_BASE_LANGUAGE_EN
}

// RoleName maps the generic chat roles onto openai's names.
func RoleName(r ai.Role) string {
	if r == ai.ROLE_MODEL {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}

func dataURL(d *ai.InlineData) string {
	return fmt.Sprintf("data:%s;base64,%s", d.MimeType, base64.StdEncoding.EncodeToString(d.Data))
}

func ConvertMessages(req ai.ChatRequest) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, t := range req.Turns {
		if t.Image == nil || len(t.Image.Data) == 0 || t.Role != ai.ROLE_USER {
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    RoleName(t.Role),
				Content: t.Text,
			})
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL(t.Image), Detail: openai.ImageURLDetailAuto},
				},
				{
					Type: openai.ChatMessagePartTypeText,
					Text: t.Text,
				},
			},
		})
	}
	return msgs
}

func (s *Driver) complete(ctx context.Context, req openai.ChatCompletionRequest) (ai.ChatResult, error) {
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return ai.ChatResult{}, err
	}
	if len(resp.Choices) == 0 {
		return ai.ChatResult{}, ai.ErrEmptyResponse
	}
	if resp.Choices[0].FinishReason != openai.FinishReasonStop {
		slog.Warn("openai finished without stop", slog.String("reason", string(resp.Choices[0].FinishReason)), slog.String("driver", NAME))
	}
	return ai.ChatResult{
		Content: resp.Choices[0].Message.Content,
		Usage: ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (s *Driver) Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
	slog.Debug("Chat", slog.String("driver", NAME), slog.Int("turns", len(req.Turns)))
	return s.complete(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: ConvertMessages(req),
	})
}

// ExtractText only handles images, the vision endpoint does not read pdf files.
func (s *Driver) ExtractText(ctx context.Context, file ai.InlineData) (string, error) {
	if !strings.HasPrefix(file.MimeType, "image/") {
		return "", ai.ErrNotSupported
	}
	res, err := s.Chat(ctx, ai.ChatRequest{
		Turns: []ai.Turn{{Role: ai.ROLE_USER, Text: ai.PROMPT_EXTRACT_TEXT, Image: &file}},
	})
	return res.Content, err
}

func (s *Driver) completeJSON(ctx context.Context, prompt, content string, out any) error {
	res, err := s.complete(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return err
	}
	if err = json.Unmarshal([]byte(res.Content), out); err != nil {
		return fmt.Errorf("failed to unmarshal ai response content, %w", err)
	}
	return nil
}

func (s *Driver) AnalyzeStructure(ctx context.Context, title, content string) (string, error) {
	var raw json.RawMessage
	prompt := ai.ReplaceVars(ai.PROMPT_ANALYZE_STRUCTURE, map[string]string{"title": title})
	if err := s.completeJSON(ctx, prompt, content, &raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Driver) GenerateNote(ctx context.Context, title, content string) (ai.NoteDraft, error) {
	var draft ai.NoteDraft
	prompt := ai.ReplaceVars(ai.PROMPT_GENERATE_NOTE, map[string]string{"title": title})
	err := s.completeJSON(ctx, prompt, content, &draft)
	draft.Tags = lo.Compact(draft.Tags)
	return draft, err
}

// ProcessAudio transcribes with whisper, then summarizes and translates the transcript.
func (s *Driver) ProcessAudio(ctx context.Context, req ai.AudioRequest) (ai.AudioResult, error) {
	var result ai.AudioResult
	tr, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.audioModel,
		FilePath: "recording" + audioExt(req.Audio.MimeType),
		Reader:   bytes.NewReader(req.Audio.Data),
	})
	if err != nil {
		return result, err
	}
	if strings.TrimSpace(tr.Text) == "" {
		return result, ai.ErrEmptyResponse
	}

	prompt := ai.ReplaceVars(ai.PROMPT_PROCESS_AUDIO, map[string]string{"target_language": req.TargetLanguage})
	if err = s.completeJSON(ctx, prompt, tr.Text, &result); err != nil {
		return result, err
	}
	result.Transcript = tr.Text
	return result, nil
}

func audioExt(mimeType string) string {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	}
	return ".mp3"
}
