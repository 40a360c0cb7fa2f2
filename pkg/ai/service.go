package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryPolicy bounds retries of transient failures. MaxRetries 0 disables retrying.
type RetryPolicy struct {
	MaxRetries uint
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Service routes each capability to the configured driver and applies the retry policy.
type Service struct {
	chat      Chatter
	extractor Extractor
	analyzer  DocumentAnalyzer
	audio     AudioProcessor
	retry     RetryPolicy
}

type Option func(*Service)

func WithChatter(c Chatter) Option {
	return func(s *Service) { s.chat = c }
}

func WithExtractor(e Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

func WithDocumentAnalyzer(a DocumentAnalyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

func WithAudioProcessor(a AudioProcessor) Option {
	return func(s *Service) { s.audio = a }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) { s.retry = p }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		retry: RetryPolicy{BaseDelay: time.Second, MaxDelay: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func retryable(err error) bool {
	return IsOverloaded(err) || errors.Is(err, ErrEmptyResponse)
}

func do[T any](ctx context.Context, p RetryPolicy, op string, fn func() (T, error)) (T, error) {
	res, err := retry.DoWithData(func() (T, error) {
		res, err := fn()
		return res, NormalizeError(err)
	},
		retry.Context(ctx),
		retry.Attempts(p.MaxRetries+1),
		retry.Delay(p.BaseDelay),
		retry.MaxDelay(p.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("ai request retry", slog.String("op", op), slog.Uint64("attempt", uint64(n+1)), slog.String("error", err.Error()))
		}),
	)
	return res, err
}

func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if s.chat == nil {
		return ChatResult{}, ErrNotConfigured
	}
	return do(ctx, s.retry, "chat", func() (ChatResult, error) {
		res, err := s.chat.Chat(ctx, req)
		if err != nil {
			return res, err
		}
		if strings.TrimSpace(res.Content) == "" {
			return res, ErrEmptyResponse
		}
		return res, nil
	})
}

func (s *Service) ExtractText(ctx context.Context, file InlineData) (string, error) {
	if s.extractor == nil {
		return "", ErrNotConfigured
	}
	return do(ctx, s.retry, "extract_text", func() (string, error) {
		text, err := s.extractor.ExtractText(ctx, file)
		if err == nil && strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}
		return text, err
	})
}

func (s *Service) AnalyzeStructure(ctx context.Context, title, content string) (string, error) {
	if s.analyzer == nil {
		return "", ErrNotConfigured
	}
	return do(ctx, s.retry, "analyze_structure", func() (string, error) {
		return s.analyzer.AnalyzeStructure(ctx, title, content)
	})
}

func (s *Service) GenerateNote(ctx context.Context, title, content string) (NoteDraft, error) {
	if s.analyzer == nil {
		return NoteDraft{}, ErrNotConfigured
	}
	return do(ctx, s.retry, "generate_note", func() (NoteDraft, error) {
		return s.analyzer.GenerateNote(ctx, title, content)
	})
}

func (s *Service) ProcessAudio(ctx context.Context, req AudioRequest) (AudioResult, error) {
	if s.audio == nil {
		return AudioResult{}, ErrNotConfigured
	}
	return do(ctx, s.retry, "process_audio", func() (AudioResult, error) {
		res, err := s.audio.ProcessAudio(ctx, req)
		if err == nil && strings.TrimSpace(res.Transcript) == "" && strings.TrimSpace(res.Summary) == "" {
			return res, ErrEmptyResponse
		}
		return res, err
	})
}
