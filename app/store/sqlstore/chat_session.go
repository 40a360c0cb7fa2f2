package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/quka-ai/studymate/pkg/register"
	"github.com/quka-ai/studymate/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChatSessionStore = NewChatSessionStore(provider)
	})
}

type ChatSessionStore struct {
	CommonFields
}

func NewChatSessionStore(provider SqlProviderAchieve) *ChatSessionStore {
	repo := &ChatSessionStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHAT_SESSION)
	repo.SetAllColumns("id", "user_id", "title", "document_ids", "created_at", "updated_at", "last_message_at")
	return repo
}

func (s *ChatSessionStore) Create(ctx context.Context, data types.ChatSession) error {
	now := time.Now().UnixMilli()
	if data.CreatedAt == 0 {
		data.CreatedAt = now
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}
	if data.LastMessageAt == 0 {
		data.LastMessageAt = data.CreatedAt
	}
	if data.DocumentIDs == nil {
		data.DocumentIDs = pq.StringArray{}
	}

	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.UserID, data.Title, data.DocumentIDs, data.CreatedAt, data.UpdatedAt, data.LastMessageAt)

	return s.exec(ctx, query)
}

func (s *ChatSessionStore) Get(ctx context.Context, userID, sessionID string) (*types.ChatSession, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": sessionID, "user_id": userID})

	var res types.ChatSession
	if err := s.get(ctx, &res, query); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ChatSessionStore) List(ctx context.Context, userID string, limit uint64) ([]types.ChatSession, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("last_message_at DESC", "created_at DESC")
	if limit != types.NO_PAGINATION {
		query = query.Limit(limit)
	}

	var list []types.ChatSession
	if err := s.selectList(ctx, &list, query); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChatSessionStore) UpdateTitle(ctx context.Context, userID, sessionID, title string) error {
	query := sq.Update(s.GetTable()).
		Set("title", title).
		Set("updated_at", time.Now().UnixMilli()).
		Where(sq.Eq{"id": sessionID, "user_id": userID})
	return s.exec(ctx, query)
}

func (s *ChatSessionStore) UpdateLastMessage(ctx context.Context, userID, sessionID string, lastMessageAt int64, documentIDs []string) error {
	if documentIDs == nil {
		documentIDs = []string{}
	}
	query := sq.Update(s.GetTable()).
		Set("last_message_at", lastMessageAt).
		Set("document_ids", pq.StringArray(documentIDs)).
		Set("updated_at", time.Now().UnixMilli()).
		Where(sq.Eq{"id": sessionID, "user_id": userID})
	return s.exec(ctx, query)
}

func (s *ChatSessionStore) Delete(ctx context.Context, userID, sessionID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": sessionID, "user_id": userID})
	return s.exec(ctx, query)
}
