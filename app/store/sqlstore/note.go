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
		provider.stores.NoteStore = NewNoteStore(provider)
	})
}

type NoteStore struct {
	CommonFields
}

func NewNoteStore(provider SqlProviderAchieve) *NoteStore {
	repo := &NoteStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_NOTE)
	repo.SetAllColumns("id", "user_id", "title", "category", "content", "ai_summary", "tags", "document_id",
		"audio_url", "transcript", "summary", "translation", "created_at", "updated_at")
	return repo
}

func (s *NoteStore) Create(ctx context.Context, data types.Note) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}
	if data.Tags == nil {
		data.Tags = pq.StringArray{}
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.UserID, data.Title, data.Category, data.Content, data.AISummary, data.Tags, data.DocumentID,
			data.AudioURL, data.Transcript, data.Summary, data.Translation, data.CreatedAt, data.UpdatedAt)
	return s.exec(ctx, query)
}

func (s *NoteStore) Get(ctx context.Context, userID, id string) (*types.Note, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id, "user_id": userID})

	var res types.Note
	if err := s.get(ctx, &res, query); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *NoteStore) List(ctx context.Context, userID string) ([]types.Note, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at DESC")

	var list []types.Note
	if err := s.selectList(ctx, &list, query); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *NoteStore) Update(ctx context.Context, userID, id string, args types.UpdateNoteArgs) error {
	query := sq.Update(s.GetTable()).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id, "user_id": userID})

	if args.Title != nil {
		query = query.Set("title", *args.Title)
	}
	if args.Category != nil {
		query = query.Set("category", *args.Category)
	}
	if args.Content != nil {
		query = query.Set("content", *args.Content)
	}
	if args.AISummary != nil {
		query = query.Set("ai_summary", *args.AISummary)
	}
	if args.AudioURL != nil {
		query = query.Set("audio_url", *args.AudioURL)
	}
	if args.Tags != nil {
		query = query.Set("tags", pq.StringArray(args.Tags))
	}
	return s.exec(ctx, query)
}

func (s *NoteStore) UpdateAudioResult(ctx context.Context, userID, id string, result types.AudioResult) error {
	query := sq.Update(s.GetTable()).
		Set("transcript", result.Transcript).
		Set("summary", result.Summary).
		Set("translation", result.Translation).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id, "user_id": userID})
	return s.exec(ctx, query)
}

func (s *NoteStore) Delete(ctx context.Context, userID, id string) error {
	return s.exec(ctx, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id, "user_id": userID}))
}
