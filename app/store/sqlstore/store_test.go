package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/testutils"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

type dsn string

func (d dsn) FormatDSN() string { return string(d) }

func setupTestProvider(t *testing.T) *Provider {
	testutils.LoadEnv()
	pg := os.Getenv("STUDYMATE_POSTGRESQL_DSN")
	if pg == "" {
		t.Skip("STUDYMATE_POSTGRESQL_DSN not set")
	}
	p := MustSetup(dsn(pg))()
	require.NoError(t, p.Install())
	utils.SetupIDWorker(1)
	return p
}

func TestChatSessionOrdering(t *testing.T) {
	p := setupTestProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID := "test-" + utils.GenSpecIDStr()
	older := types.ChatSession{ID: utils.GenSpecIDStr(), UserID: userID, Title: "older", LastMessageAt: 1000}
	newer := types.ChatSession{ID: utils.GenSpecIDStr(), UserID: userID, Title: "newer", LastMessageAt: 2000, DocumentIDs: []string{"d1"}}
	require.NoError(t, p.ChatSessionStore().Create(ctx, older))
	require.NoError(t, p.ChatSessionStore().Create(ctx, newer))
	defer func() {
		p.ChatSessionStore().Delete(ctx, userID, older.ID)
		p.ChatSessionStore().Delete(ctx, userID, newer.ID)
	}()

	list, err := p.ChatSessionStore().List(ctx, userID, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, []string{"d1"}, []string(list[0].DocumentIDs))

	require.NoError(t, p.ChatSessionStore().UpdateLastMessage(ctx, userID, older.ID, 3000, []string{"d2"}))
	list, err = p.ChatSessionStore().List(ctx, userID, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)
}

func TestChatMessageBefore(t *testing.T) {
	p := setupTestProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID := "test-" + utils.GenSpecIDStr()
	sessionID := utils.GenSpecIDStr()
	defer p.ChatMessageStore().DeleteSession(ctx, userID, sessionID)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, p.ChatMessageStore().Create(ctx, types.ChatMessage{
			ID:        utils.GenSpecIDStr(),
			SessionID: sessionID,
			UserID:    userID,
			Role:      types.MESSAGE_ROLE_USER,
			Content:   "hi",
			Timestamp: i * 10,
		}))
	}

	list, err := p.ChatMessageStore().ListLatest(ctx, types.ListMessageOptions{SessionID: sessionID, UserID: userID, Before: 30}, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(20), list[0].Timestamp)
	assert.Equal(t, int64(10), list[1].Timestamp)
}
