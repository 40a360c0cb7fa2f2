package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/ai"
	pkgerrors "github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
)

func TestSubmitCreatesSessionAndReply(t *testing.T) {
	env := newTestEnv()
	env.docs.docs = []types.Document{{ID: "d1", Title: "Cells", Content: "cell text"}, {ID: "d2", Title: "DNA"}}
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))
	require.Empty(t, ws.Sessions.List())

	reply, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "explain", DocumentIDs: []string{"d1", "d2"}})
	require.NoError(t, err)
	assert.Equal(t, "answer", reply.Content)

	sessions := env.sessions.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{"d1", "d2"}, []string(sessions[0].DocumentIDs))
	assert.Equal(t, reply.Timestamp, sessions[0].LastMessageAt)

	stored := env.messages.all()
	require.Len(t, stored, 2)
	assert.Equal(t, types.MESSAGE_ROLE_USER, stored[0].Role)
	assert.Equal(t, types.MESSAGE_ROLE_ASSISTANT, stored[1].Role)
	assert.Less(t, stored[0].Timestamp, stored[1].Timestamp)

	buffer := ws.Messages.Snapshot()
	require.Len(t, buffer, 2)
	assert.Equal(t, stored[0].ID, buffer[0].ID)
	assert.Equal(t, stored[1].ID, buffer[1].ID)
	for _, m := range buffer {
		assert.Equal(t, types.SYNC_CONFIRMED, m.Sync)
	}

	assert.Equal(t, ChatStatus{}, ws.Chat.Status())
	cached, ok := ws.Sessions.Get(sessions[0].ID)
	require.True(t, ok)
	assert.Equal(t, []string{"d1", "d2"}, []string(cached.DocumentIDs))
}

func TestSubmitBuildsHistory(t *testing.T) {
	env := newTestEnv()
	env.docs.docs = []types.Document{{ID: "d1", Title: "Cells", Content: "cell text"}}
	seedSessions(env.sessions, "u1", 1)
	env.messages.rows = []types.ChatMessage{
		{ID: "a", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_USER, Content: "first", Timestamp: 1, AttachedDocumentIDs: []string{"d1"}},
		{ID: "b", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_ASSISTANT, Content: "reply", Timestamp: 2},
		{ID: "c", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_USER, Content: "second", Timestamp: 3},
		{ID: "d", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_ASSISTANT, Content: "second", Timestamp: 4, IsError: true},
	}

	var got ai.ChatRequest
	env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
		got = req
		return ai.ChatResult{Content: "ok"}, nil
	}

	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	_, err := ws.Chat.Submit(ctx, SubmitRequest{
		Text:  "what is in the picture",
		Image: &Image{URL: "https://cdn/x.png", MimeType: "image/png", Data: []byte{1}},
	})
	require.NoError(t, err)

	require.Len(t, got.Turns, 4)
	assert.Equal(t, ai.ROLE_USER, got.Turns[0].Role)
	assert.Contains(t, got.Turns[0].Text, "DOCUMENTS:\nTitle: Cells")
	assert.True(t, strings.HasSuffix(got.Turns[0].Text, "first"))
	assert.Equal(t, ai.Turn{Role: ai.ROLE_MODEL, Text: "reply"}, got.Turns[1])
	assert.Equal(t, ai.Turn{Role: ai.ROLE_USER, Text: "second"}, got.Turns[2])

	last := got.Turns[3]
	assert.Equal(t, "what is in the picture", last.Text)
	require.NotNil(t, last.Image)
	assert.Equal(t, "image/png", last.Image.MimeType)
	assert.NotEmpty(t, got.System)

	stored := env.messages.all()
	assert.Equal(t, "https://cdn/x.png", stored[4].ImageURL)
}

func TestSubmitFailureAddsErrorReply(t *testing.T) {
	env := newTestEnv()
	env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
		return ai.ChatResult{}, errors.New("connection reset")
	}
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	reply, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "my question"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, pkgerrors.CodeOf(err))

	require.NotNil(t, reply)
	assert.True(t, reply.IsError)
	assert.Equal(t, "my question", reply.Content)

	buffer := ws.Messages.Snapshot()
	require.Len(t, buffer, 2)
	var errorReplies int
	for _, m := range buffer {
		if m.Role == types.MESSAGE_ROLE_ASSISTANT {
			errorReplies++
			assert.True(t, m.IsError)
			assert.Equal(t, "my question", m.Content)
		}
	}
	assert.Equal(t, 1, errorReplies)
	assert.Len(t, env.messages.all(), 2)
	assert.Equal(t, ChatStatus{}, ws.Chat.Status())
	assert.NotEmpty(t, env.notifier.ofType(types.EVENT_NOTIFICATION))
}

func TestSubmitOverloadedAndEmpty(t *testing.T) {
	cases := []struct {
		name string
		res  ai.ChatResult
		err  error
		key  string
		code int
	}{
		{name: "overloaded", err: errors.New("503 The model is overloaded"), key: i18n.ERROR_AI_OVERLOADED, code: http.StatusServiceUnavailable},
		{name: "empty", res: ai.ChatResult{Content: "   "}, key: i18n.ERROR_AI_EMPTY_RESPONSE, code: http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
				return tc.res, tc.err
			}
			ws := env.workspace("u1")
			ctx := context.Background()
			require.NoError(t, ws.Init(ctx))

			_, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "q"})
			var ce *pkgerrors.CustomizedError
			require.True(t, pkgerrors.As(err, &ce))
			assert.Equal(t, tc.key, ce.Message())
			assert.Equal(t, tc.code, ce.GetCode())

			notes := env.notifier.ofType(types.EVENT_NOTIFICATION)
			require.NotEmpty(t, notes)
			assert.Equal(t, tc.key, notes[len(notes)-1].Payload.(types.Notification).Message)
		})
	}
}

func TestRegenerateChangesOnlyTarget(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	seedMessages(env.messages, "u1", "s00", 4)

	var got ai.ChatRequest
	env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
		got = req
		return ai.ChatResult{Content: "better answer"}, nil
	}

	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	before := ws.Messages.Snapshot()
	storedBefore := env.messages.all()

	updated, err := ws.Chat.Regenerate(ctx, "m001")
	require.NoError(t, err)
	assert.Equal(t, "better answer", updated.Content)
	assert.False(t, updated.IsError)

	// only the prompting user message is sent
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "message 0", got.Turns[0].Text)

	after := ws.Messages.Snapshot()
	require.Len(t, after, len(before))
	for i := range before {
		if before[i].ID == "m001" {
			assert.Equal(t, "better answer", after[i].Content)
			assert.Less(t, after[i].Timestamp, after[i+1].Timestamp)
			continue
		}
		assert.Equal(t, before[i], after[i])
	}

	storedAfter := env.messages.all()
	for i := range storedBefore {
		if storedBefore[i].ID == "m001" {
			continue
		}
		assert.Equal(t, storedBefore[i], storedAfter[i])
	}
}

func TestRegenerateFailureMarksTarget(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	seedMessages(env.messages, "u1", "s00", 2)
	env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
		return ai.ChatResult{}, errors.New("boom")
	}

	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	msg, err := ws.Chat.Regenerate(ctx, "m001")
	require.Error(t, err)
	assert.True(t, msg.IsError)
	assert.Equal(t, i18n.ERROR_AI_REQUEST_FAILED, msg.Content)

	got, _ := ws.Messages.Get("m001")
	assert.True(t, got.IsError)
	assert.Len(t, ws.Messages.Snapshot(), 2)
	assert.True(t, env.messages.all()[1].IsError)
	assert.Equal(t, ChatStatus{}, ws.Chat.Status())
}

func TestRegenerateRejectsUserMessage(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	seedMessages(env.messages, "u1", "s00", 2)
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	_, err := ws.Chat.Regenerate(ctx, "m000")
	assert.Equal(t, http.StatusBadRequest, pkgerrors.CodeOf(err))

	_, err = ws.Chat.Regenerate(ctx, "nope")
	assert.Equal(t, http.StatusNotFound, pkgerrors.CodeOf(err))
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	env := newTestEnv()
	release := make(chan struct{})
	env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
		<-release
		return ai.ChatResult{Content: "done"}, nil
	}
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "first"})
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return ws.Chat.Status().IsAILoading }, time.Second, time.Millisecond)

	_, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "second"})
	assert.Equal(t, http.StatusConflict, pkgerrors.CodeOf(err))

	close(release)
	wg.Wait()
	assert.Equal(t, ChatStatus{}, ws.Chat.Status())
	assert.Len(t, env.messages.all(), 2)
}

type denyLocker struct{}

func (denyLocker) TryLock(ctx context.Context, key string) (bool, error) { return false, nil }

func TestSubmitSessionLocked(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	ws := New("u1", Deps{
		Sessions:  env.sessions,
		Messages:  env.messages,
		Documents: env.docs,
		Notes:     env.notes,
		AudioJobs: env.jobs,
		AI:        env.chat,
		Locker:    denyLocker{},
		Now:       env.clock.Now,
	})
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	_, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "hi"})
	assert.Equal(t, http.StatusConflict, pkgerrors.CodeOf(err))
	assert.Empty(t, env.messages.all())
	assert.Equal(t, ChatStatus{}, ws.Chat.Status())
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv()
	ws := env.workspace("u1")
	_, err := ws.Chat.Submit(context.Background(), SubmitRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, pkgerrors.CodeOf(err))

	anon := env.workspace("")
	_, err = anon.Chat.Submit(context.Background(), SubmitRequest{Text: "hi"})
	assert.Equal(t, http.StatusUnauthorized, pkgerrors.CodeOf(err))
}

func TestClassifyAIError(t *testing.T) {
	cases := []struct {
		err  error
		key  string
		code int
	}{
		{ai.ErrOverloaded, i18n.ERROR_AI_OVERLOADED, http.StatusServiceUnavailable},
		{errors.New("googleapi: Error 429: Resource has been exhausted"), i18n.ERROR_AI_OVERLOADED, http.StatusServiceUnavailable},
		{fmt.Errorf("chat: %w", ai.ErrEmptyResponse), i18n.ERROR_AI_EMPTY_RESPONSE, http.StatusBadGateway},
		{ai.ErrNotSupported, i18n.ERROR_AI_NOT_CONFIGURED, http.StatusServiceUnavailable},
		{errors.New("connection reset"), i18n.ERROR_AI_REQUEST_FAILED, http.StatusBadGateway},
	}
	for _, c := range cases {
		key, code := ClassifyAIError(c.err)
		assert.Equal(t, c.key, key, c.err.Error())
		assert.Equal(t, c.code, code, c.err.Error())
	}
}

func TestHistoryKeepsImageOnlyTurns(t *testing.T) {
	env := newTestEnv()
	var got ai.ChatRequest
	env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
		got = req
		return ai.ChatResult{Content: "answer"}, nil
	}
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	_, err := ws.Chat.Submit(ctx, SubmitRequest{
		Image: &Image{URL: "https://cdn/x.png", MimeType: "image/png", Data: []byte{1}},
	})
	require.NoError(t, err)

	_, err = ws.Chat.Submit(ctx, SubmitRequest{Text: "and now?"})
	require.NoError(t, err)

	require.Len(t, got.Turns, 3)
	assert.Equal(t, ai.Turn{Role: ai.ROLE_USER, Text: IMAGE_TURN_PLACEHOLDER}, got.Turns[0])
	assert.Equal(t, ai.Turn{Role: ai.ROLE_MODEL, Text: "answer"}, got.Turns[1])
	assert.Equal(t, ai.ROLE_USER, got.Turns[2].Role)
	assert.Equal(t, "and now?", got.Turns[2].Text)
}

func TestHistoryDropsReplyWithoutUserTurn(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	env.messages.rows = []types.ChatMessage{
		{ID: "a", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_USER, Content: "", Timestamp: 1},
		{ID: "b", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_ASSISTANT, Content: "orphan", Timestamp: 2},
		{ID: "c", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_USER, Content: "hello", Timestamp: 3},
		{ID: "d", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_ASSISTANT, Content: "hi", Timestamp: 4},
		{ID: "e", SessionID: "s00", UserID: "u1", Role: types.MESSAGE_ROLE_ASSISTANT, Content: "hi again", Timestamp: 5},
	}

	var got ai.ChatRequest
	env.chat.ChatFunc = func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
		got = req
		return ai.ChatResult{Content: "ok"}, nil
	}
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	_, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "next"})
	require.NoError(t, err)

	roles := make([]ai.Role, 0, len(got.Turns))
	for _, turn := range got.Turns {
		roles = append(roles, turn.Role)
	}
	assert.Equal(t, []ai.Role{ai.ROLE_USER, ai.ROLE_MODEL, ai.ROLE_USER}, roles)
	assert.Equal(t, "hello", got.Turns[0].Text)
	assert.Equal(t, "hi", got.Turns[1].Text)
}
