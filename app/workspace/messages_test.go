package workspace

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/types"
)

func seedMessages(store *memMessageStore, userID, sessionID string, n int) {
	for i := 0; i < n; i++ {
		role := types.MESSAGE_ROLE_USER
		if i%2 == 1 {
			role = types.MESSAGE_ROLE_ASSISTANT
		}
		store.rows = append(store.rows, types.ChatMessage{
			ID:        fmt.Sprintf("m%03d", i),
			SessionID: sessionID,
			UserID:    userID,
			Content:   fmt.Sprintf("message %d", i),
			Role:      role,
			Timestamp: int64(10_000 + i*10),
		})
	}
}

func TestLoadOlderIsChronologicalWithoutDuplicates(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	seedMessages(env.messages, "u1", "s00", 75)
	ws := env.workspace("u1")
	ctx := context.Background()

	require.NoError(t, ws.Init(ctx))
	assert.Len(t, ws.Messages.Snapshot(), int(MESSAGE_PAGE_SIZE))
	assert.True(t, ws.Messages.HasOlder())

	var added []int
	for ws.Messages.HasOlder() {
		n, err := ws.Messages.LoadOlder(ctx)
		require.NoError(t, err)
		added = append(added, n)
	}
	assert.Equal(t, []int{30, 15}, added)

	list := ws.Messages.Snapshot()
	require.Len(t, list, 75)
	seen := map[string]bool{}
	for i, m := range list {
		assert.False(t, seen[m.ID], "duplicate %s", m.ID)
		seen[m.ID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, m.Timestamp, list[i-1].Timestamp)
		}
	}

	n, err := ws.Messages.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSetActiveSessionEmpty(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	seedMessages(env.messages, "u1", "s00", 40)
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))
	require.NotEmpty(t, ws.Messages.Snapshot())

	require.NoError(t, ws.Messages.SetActiveSession(ctx, ""))
	assert.Empty(t, ws.Messages.Snapshot())
	assert.False(t, ws.Messages.HasOlder())

	n, err := ws.Messages.LoadOlder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLocalMutations(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	msg := types.ChatMessage{ID: "x", SessionID: "s00", UserID: "u1", Content: "hi", Role: types.MESSAGE_ROLE_USER, Timestamp: 1}
	ws.Messages.AppendPending(ctx, msg)
	got, ok := ws.Messages.Get("x")
	require.True(t, ok)
	assert.Equal(t, types.SYNC_PENDING, got.Sync)

	ws.Messages.MarkFailed(ctx, "x")
	got, _ = ws.Messages.Get("x")
	assert.Equal(t, types.SYNC_FAILED, got.Sync)

	msg.Content = "edited"
	msg.IsError = true
	ws.Messages.Replace(ctx, msg)
	got, _ = ws.Messages.Get("x")
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.IsError)
	assert.Equal(t, types.SYNC_CONFIRMED, got.Sync)

	ws.Messages.Remove(ctx, "x")
	_, ok = ws.Messages.Get("x")
	assert.False(t, ok)

	// other sessions never enter the buffer
	ws.Messages.AppendPending(ctx, types.ChatMessage{ID: "y", SessionID: "other"})
	assert.Empty(t, ws.Messages.Snapshot())
}

func TestDeleteMessage(t *testing.T) {
	env := newTestEnv()
	seedSessions(env.sessions, "u1", 1)
	seedMessages(env.messages, "u1", "s00", 4)
	ws := env.workspace("u1")
	ctx := context.Background()
	require.NoError(t, ws.Init(ctx))

	require.NoError(t, ws.Messages.Delete(ctx, "m001"))
	assert.Len(t, ws.Messages.Snapshot(), 3)
	assert.Len(t, env.messages.all(), 3)
}
