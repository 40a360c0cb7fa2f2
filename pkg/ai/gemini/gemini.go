package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/quka-ai/studymate/pkg/ai"
)

const (
	NAME          = "gemini"
	DEFAULT_MODEL = "gemini-2.0-flash"
)

type Driver struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, token, model string) (*Driver, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(token))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DEFAULT_MODEL
	}

	return &Driver{
		client: client,
		model:  model,
	}, nil
}

func (s *Driver) Close() error {
	return s.client.Close()
}

func (s *Driver) Lang() string {
	return ai.MODEL_BASE_LANGUAGE_EN
}

// turnParts converts a turn into gemini parts, image first so the text reads as the caption.
func turnParts(t ai.Turn) []genai.Part {
	var parts []genai.Part
	if t.Image != nil && len(t.Image.Data) > 0 {
		parts = append(parts, genai.Blob{MIMEType: t.Image.MimeType, Data: t.Image.Data})
	}
	if t.Text != "" {
		parts = append(parts, genai.Text(t.Text))
	}
	return parts
}

// ConvertTurns splits the request into history and the parts of the final turn.
func ConvertTurns(turns []ai.Turn) ([]*genai.Content, []genai.Part, error) {
	if len(turns) == 0 {
		return nil, nil, fmt.Errorf("no turns to send")
	}
	last := turns[len(turns)-1]
	if last.Role != ai.ROLE_USER {
		return nil, nil, fmt.Errorf("last turn must be sent by user, got %s", last.Role)
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, t := range turns[:len(turns)-1] {
		parts := turnParts(t)
		if len(parts) == 0 {
			continue
		}
		history = append(history, &genai.Content{
			Role:  string(t.Role),
			Parts: parts,
		})
	}
	return history, turnParts(last), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ai.ErrEmptyResponse
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
		slog.Warn("gemini finished without stop", slog.String("reason", candidate.FinishReason.String()), slog.String("driver", NAME))
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func usageOf(resp *genai.GenerateContentResponse) ai.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return ai.Usage{}
	}
	return ai.Usage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
	}
}

func (s *Driver) Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
	history, parts, err := ConvertTurns(req.Turns)
	if err != nil {
		return ai.ChatResult{}, err
	}

	model := s.client.GenerativeModel(s.model)
	if req.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}

	cs := model.StartChat()
	cs.History = history

	slog.Debug("Chat", slog.String("driver", NAME), slog.Int("history", len(history)))
	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return ai.ChatResult{}, err
	}

	text, err := responseText(resp)
	if err != nil {
		return ai.ChatResult{}, err
	}
	return ai.ChatResult{Content: text, Usage: usageOf(resp)}, nil
}

func (s *Driver) ExtractText(ctx context.Context, file ai.InlineData) (string, error) {
	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: file.MimeType, Data: file.Data},
		genai.Text(ai.PROMPT_EXTRACT_TEXT))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func (s *Driver) generateJSON(ctx context.Context, schema *genai.Schema, parts ...genai.Part) (string, error) {
	model := s.client.GenerativeModel(s.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

var structureSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"outline":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"key_concepts": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"difficulty":   {Type: genai.TypeString, Enum: []string{"introductory", "intermediate", "advanced"}},
	},
	Required: []string{"outline", "key_concepts", "difficulty"},
}

func (s *Driver) AnalyzeStructure(ctx context.Context, title, content string) (string, error) {
	prompt := ai.ReplaceVars(ai.PROMPT_ANALYZE_STRUCTURE, map[string]string{"title": title})
	return s.generateJSON(ctx, structureSchema, genai.Text(prompt), genai.Text(content))
}

var noteSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":    {Type: genai.TypeString},
		"category": {Type: genai.TypeString},
		"content":  {Type: genai.TypeString},
		"summary":  {Type: genai.TypeString},
		"tags":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"title", "content"},
}

func (s *Driver) GenerateNote(ctx context.Context, title, content string) (ai.NoteDraft, error) {
	var draft ai.NoteDraft
	prompt := ai.ReplaceVars(ai.PROMPT_GENERATE_NOTE, map[string]string{"title": title})
	raw, err := s.generateJSON(ctx, noteSchema, genai.Text(prompt), genai.Text(content))
	if err != nil {
		return draft, err
	}
	if err = json.Unmarshal([]byte(raw), &draft); err != nil {
		return draft, fmt.Errorf("failed to unmarshal ai response content, %w", err)
	}
	return draft, nil
}

var audioSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"transcript":  {Type: genai.TypeString},
		"summary":     {Type: genai.TypeString},
		"translation": {Type: genai.TypeString},
	},
	Required: []string{"transcript", "summary"},
}

func (s *Driver) ProcessAudio(ctx context.Context, req ai.AudioRequest) (ai.AudioResult, error) {
	var result ai.AudioResult
	prompt := ai.ReplaceVars(ai.PROMPT_PROCESS_AUDIO, map[string]string{"target_language": req.TargetLanguage})
	raw, err := s.generateJSON(ctx, audioSchema,
		genai.Blob{MIMEType: req.Audio.MimeType, Data: req.Audio.Data},
		genai.Text(prompt))
	if err != nil {
		return result, err
	}
	if err = json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal ai response content, %w", err)
	}
	return result, nil
}
