package workspace

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/types"
)

func seedSessions(store *memSessionStore, userID string, n int) {
	for i := 0; i < n; i++ {
		store.rows = append(store.rows, types.ChatSession{
			ID:            fmt.Sprintf("s%02d", i),
			UserID:        userID,
			Title:         fmt.Sprintf("session %d", i),
			DocumentIDs:   []string{},
			LastMessageAt: int64(1000 + i),
		})
	}
}

func TestSessionsLoadAndLoadMore(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 25)
	ws := env.workspace("u1")
	ctx := context.Background()

	require.NoError(t, ws.Sessions.Load(ctx, SESSION_PAGE_SIZE))
	list := ws.Sessions.List()
	assert.Len(t, list, 20)
	assert.True(t, ws.Sessions.HasMore())
	assert.Equal(t, "s24", list[0].ID)

	require.NoError(t, ws.Sessions.LoadMore(ctx))
	assert.Len(t, ws.Sessions.List(), 25)
	assert.False(t, ws.Sessions.HasMore())
	assert.Equal(t, SESSION_PAGE_SIZE+SESSION_PAGE_INCREMENT, ws.Sessions.PageSize())

	for i := 1; i < len(ws.Sessions.List()); i++ {
		assert.GreaterOrEqual(t, ws.Sessions.List()[i-1].LastMessageAt, ws.Sessions.List()[i].LastMessageAt)
	}
}

func TestSessionsHasMoreOnExactPage(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 20)
	ws := env.workspace("u1")

	require.NoError(t, ws.Sessions.Load(context.Background(), 20))
	// a full page is reported as "maybe more" even when nothing is left
	assert.True(t, ws.Sessions.HasMore())
}

func TestSessionsCreateWithoutUser(t *testing.T) {
	env := newTestEnv()
	ws := env.workspace("")

	session, err := ws.Sessions.Create(context.Background(), []string{"d1"})
	assert.Nil(t, session)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, errors.CodeOf(err))
	assert.Empty(t, env.sessions.all())
}

func TestSessionsCreateBecomesActive(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 3)
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))
	require.NoError(t, ws.Sessions.LoadMore(ctx))

	session, err := ws.Sessions.Create(ctx, []string{"d1", "d1", "d2"})
	require.NoError(t, err)

	assert.Equal(t, session.ID, ws.Sessions.Active())
	assert.Equal(t, session.ID, ws.Sessions.List()[0].ID)
	assert.Equal(t, SESSION_PAGE_SIZE, ws.Sessions.PageSize())
	assert.Equal(t, []string{"d1", "d2"}, []string(session.DocumentIDs))
	assert.Equal(t, session.ID, ws.Messages.SessionID())
	assert.Empty(t, ws.Messages.Snapshot())
}

func TestDeleteOnlyActiveSession(t *testing.T) {
	env := newTestEnv()
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	_, err := ws.Chat.Submit(ctx, SubmitRequest{Text: "hello"})
	require.NoError(t, err)
	id := ws.Sessions.Active()
	require.NotEmpty(t, id)
	require.Len(t, ws.Messages.Snapshot(), 2)

	require.NoError(t, ws.Sessions.Delete(ctx, id))
	assert.Equal(t, "", ws.Sessions.Active())
	assert.Equal(t, "", ws.Messages.SessionID())
	assert.Empty(t, ws.Messages.Snapshot())
	assert.False(t, ws.Messages.HasOlder())
	assert.Empty(t, env.sessions.all())
	assert.Empty(t, env.messages.all())
}

func TestDeleteActiveSelectsMostRecent(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 3)
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))
	require.Equal(t, "s02", ws.Sessions.Active())

	require.NoError(t, ws.Sessions.Delete(ctx, "s02"))
	assert.Equal(t, "s01", ws.Sessions.Active())

	// deleting an inactive session keeps the selection
	require.NoError(t, ws.Sessions.Delete(ctx, "s00"))
	assert.Equal(t, "s01", ws.Sessions.Active())
}

func TestDeleteKeepsSessionWhenMessagesFail(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	env.messages.DeleteSessionFunc = func(ctx context.Context, userID, sessionID string) error {
		return fmt.Errorf("disk full")
	}
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))
	require.Equal(t, "s00", ws.Sessions.Active())

	err := ws.Sessions.Delete(ctx, "s00")
	require.Error(t, err)

	assert.Len(t, env.sessions.all(), 1)
	_, ok := ws.Sessions.Get("s00")
	assert.True(t, ok)
	assert.Equal(t, "s00", ws.Sessions.Active())
}

func TestRenameUpdatesCache(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 2)
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	require.NoError(t, ws.Sessions.Rename(ctx, "s00", "Biology"))
	got, ok := ws.Sessions.Get("s00")
	require.True(t, ok)
	assert.Equal(t, "Biology", got.Title)
	assert.Equal(t, "Biology", env.sessions.all()[0].Title)
}

func TestSelectUnknownSession(t *testing.T) {
	env := newTestEnv()
	ws := env.workspace("u1")
	err := ws.Sessions.Select(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, errors.CodeOf(err))
}
