package srv

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/ai/gemini"
	"github.com/quka-ai/studymate/pkg/ai/openai"
	"github.com/quka-ai/studymate/pkg/extract"
)

type AIConfig struct {
	// Provider selects the chat driver: gemini or openai
	Provider   string       `toml:"provider" env:"PROVIDER" envDefault:"gemini"`
	Gemini     GeminiDriver `toml:"gemini" envPrefix:"GEMINI_"`
	OpenAI     OpenAIDriver `toml:"openai" envPrefix:"OPENAI_"`
	MaxRetries uint         `toml:"max_retries" env:"MAX_RETRIES"`
	// RetryDelay in milliseconds
	RetryDelay int `toml:"retry_delay" env:"RETRY_DELAY" envDefault:"1000"`
}

type GeminiDriver struct {
	Token string `toml:"token" env:"TOKEN"`
	Model string `toml:"model" env:"MODEL"`
}

type OpenAIDriver struct {
	Token    string `toml:"token" env:"TOKEN"`
	Endpoint string `toml:"endpoint" env:"ENDPOINT"`
	Model    string `toml:"model" env:"MODEL"`
}

type AIStatus struct {
	Provider      string `json:"provider"`
	ChatAvailable bool   `json:"chat_available"`
	ExtractDriver string `json:"extract_driver"`
	AudioDriver   string `json:"audio_driver"`
	AnalyzeDriver string `json:"analyze_driver"`
	MaxRetries    uint   `json:"max_retries"`
}

type driver interface {
	ai.Chatter
	ai.Extractor
	ai.DocumentAnalyzer
	ai.AudioProcessor
}

// SetupAI builds the ai service. Gemini reads pdf and audio inline, so it serves
// extraction and audio whenever a gemini token is set even if chat goes to openai.
func SetupAI(ctx context.Context, cfg AIConfig) (*ai.Service, AIStatus, error) {
	var (
		drivers = map[string]driver{}
		status  = AIStatus{Provider: strings.ToLower(cfg.Provider), MaxRetries: cfg.MaxRetries}
	)

	if cfg.Gemini.Token != "" {
		d, err := gemini.New(ctx, cfg.Gemini.Token, cfg.Gemini.Model)
		if err != nil {
			return nil, status, fmt.Errorf("failed to setup gemini driver, %w", err)
		}
		drivers[gemini.NAME] = d
	}
	if cfg.OpenAI.Token != "" {
		drivers[openai.NAME] = openai.New(cfg.OpenAI.Token, cfg.OpenAI.Endpoint, cfg.OpenAI.Model)
	}

	if status.Provider == "" {
		status.Provider = gemini.NAME
	}
	chat, ok := drivers[status.Provider]
	if !ok {
		slog.Warn("chat provider not configured", slog.String("provider", status.Provider))
		for name, d := range drivers {
			chat, status.Provider = d, name
			break
		}
	}

	media := chat
	if d, ok := drivers[gemini.NAME]; ok {
		media = d
	}

	opts := []ai.Option{
		ai.WithRetryPolicy(ai.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  time.Duration(cfg.RetryDelay) * time.Millisecond,
			MaxDelay:   30 * time.Second,
		}),
	}
	if chat != nil {
		status.ChatAvailable = true
		status.AnalyzeDriver = status.Provider
		opts = append(opts, ai.WithChatter(chat), ai.WithDocumentAnalyzer(chat))
	}
	if media != nil {
		name := status.Provider
		if _, ok := drivers[gemini.NAME]; ok {
			name = gemini.NAME
		}
		status.ExtractDriver, status.AudioDriver = name, name
		opts = append(opts, ai.WithExtractor(media), ai.WithAudioProcessor(media))
	}

	return ai.NewService(opts...), status, nil
}

func ApplyAI(ctx context.Context, cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		service, status, err := SetupAI(ctx, cfg)
		if err != nil {
			panic(err)
		}
		s.ai = service
		s.aiStatus = status
		s.extractor = extract.New(service)
	}
}
