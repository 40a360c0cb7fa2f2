package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/quka-ai/studymate/pkg/register"
	"github.com/quka-ai/studymate/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChatMessageStore = NewChatMessageStore(provider)
	})
}

type ChatMessageStore struct {
	CommonFields
}

func NewChatMessageStore(provider SqlProviderAchieve) *ChatMessageStore {
	repo := &ChatMessageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHAT_MESSAGE)
	repo.SetAllColumns("id", "session_id", "user_id", "content", "role", "timestamp", "is_error",
		"attached_document_ids", "attached_note_ids", "image_url", "image_mime_type")
	return repo
}

func (s *ChatMessageStore) Create(ctx context.Context, data types.ChatMessage) error {
	if data.AttachedDocumentIDs == nil {
		data.AttachedDocumentIDs = pq.StringArray{}
	}
	if data.AttachedNoteIDs == nil {
		data.AttachedNoteIDs = pq.StringArray{}
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.SessionID, data.UserID, data.Content, data.Role, data.Timestamp, data.IsError,
			data.AttachedDocumentIDs, data.AttachedNoteIDs, data.ImageURL, data.ImageMimeType)
	return s.exec(ctx, query)
}

func (s *ChatMessageStore) ListLatest(ctx context.Context, opts types.ListMessageOptions, limit uint64) ([]types.ChatMessage, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"session_id": opts.SessionID, "user_id": opts.UserID}).
		OrderBy("timestamp DESC", "id DESC")
	if opts.Before > 0 {
		query = query.Where(sq.Lt{"timestamp": opts.Before})
	}
	if limit != types.NO_PAGINATION {
		query = query.Limit(limit)
	}

	var list []types.ChatMessage
	if err := s.selectList(ctx, &list, query); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChatMessageStore) UpdateContent(ctx context.Context, userID, id, content string, timestamp int64, isError bool) error {
	query := sq.Update(s.GetTable()).
		Set("content", content).
		Set("timestamp", timestamp).
		Set("is_error", isError).
		Where(sq.Eq{"id": id, "user_id": userID})
	return s.exec(ctx, query)
}

func (s *ChatMessageStore) Delete(ctx context.Context, userID, id string) error {
	return s.exec(ctx, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id, "user_id": userID}))
}

func (s *ChatMessageStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return s.exec(ctx, sq.Delete(s.GetTable()).Where(sq.Eq{"session_id": sessionID, "user_id": userID}))
}
