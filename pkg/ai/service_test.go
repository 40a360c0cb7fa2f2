package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFunc func(ctx context.Context, req ChatRequest) (ChatResult, error)

func (f chatFunc) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	return f(ctx, req)
}

func TestNormalizeError(t *testing.T) {
	err := NormalizeError(errors.New("googleapi: Error 503: The model is overloaded. Please try again later."))
	assert.True(t, errors.Is(err, ErrOverloaded))
	assert.True(t, IsOverloaded(err))

	plain := errors.New("bad request")
	assert.Equal(t, plain, NormalizeError(plain))
	assert.Nil(t, NormalizeError(nil))
}

func TestChatEmptyResponse(t *testing.T) {
	s := NewService(WithChatter(chatFunc(func(ctx context.Context, req ChatRequest) (ChatResult, error) {
		return ChatResult{Content: "  "}, nil
	})))

	_, err := s.Chat(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChatNoRetryByDefault(t *testing.T) {
	calls := 0
	s := NewService(WithChatter(chatFunc(func(ctx context.Context, req ChatRequest) (ChatResult, error) {
		calls++
		return ChatResult{}, errors.New("model is overloaded")
	})))

	_, err := s.Chat(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrOverloaded)
	assert.Equal(t, 1, calls)
}

func TestChatRetryOverloaded(t *testing.T) {
	calls := 0
	s := NewService(
		WithChatter(chatFunc(func(ctx context.Context, req ChatRequest) (ChatResult, error) {
			calls++
			if calls < 3 {
				return ChatResult{}, errors.New("model is overloaded")
			}
			return ChatResult{Content: "ok"}, nil
		})),
		WithRetryPolicy(RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}),
	)

	res, err := s.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
	assert.Equal(t, 3, calls)
}

func TestChatDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	s := NewService(
		WithChatter(chatFunc(func(ctx context.Context, req ChatRequest) (ChatResult, error) {
			calls++
			return ChatResult{}, errors.New("invalid api key")
		})),
		WithRetryPolicy(RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}),
	)

	_, err := s.Chat(context.Background(), ChatRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNotConfigured(t *testing.T) {
	s := NewService()
	_, err := s.Chat(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = s.ProcessAudio(context.Background(), AudioRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestReplaceVars(t *testing.T) {
	out := ReplaceVars("hello ${name}, ${name}", map[string]string{"name": "ada"})
	assert.Equal(t, "hello ada, ada", out)
	assert.Equal(t, "", LangHint(""))
}
