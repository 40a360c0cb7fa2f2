package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/quka-ai/studymate/pkg/register"
	"github.com/quka-ai/studymate/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DocumentStore = NewDocumentStore(provider)
	})
}

type DocumentStore struct {
	CommonFields
}

func NewDocumentStore(provider SqlProviderAchieve) *DocumentStore {
	repo := &DocumentStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_DOCUMENT)
	repo.SetAllColumns("id", "user_id", "title", "file_name", "file_type", "file_url", "size", "content", "structure", "status", "created_at", "updated_at")
	return repo
}

func (s *DocumentStore) Create(ctx context.Context, data types.Document) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.UserID, data.Title, data.FileName, data.FileType, data.FileURL, data.Size,
			data.Content, data.Structure, data.Status, data.CreatedAt, data.UpdatedAt)
	return s.exec(ctx, query)
}

func (s *DocumentStore) Get(ctx context.Context, userID, id string) (*types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id, "user_id": userID})

	var res types.Document
	if err := s.get(ctx, &res, query); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *DocumentStore) List(ctx context.Context, userID string) ([]types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	var list []types.Document
	if err := s.selectList(ctx, &list, query); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *DocumentStore) UpdateContent(ctx context.Context, userID, id, content, structure string, status types.DocumentStatus) error {
	query := sq.Update(s.GetTable()).
		Set("content", content).
		Set("structure", structure).
		Set("status", status).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id, "user_id": userID})
	return s.exec(ctx, query)
}

func (s *DocumentStore) Delete(ctx context.Context, userID, id string) error {
	return s.exec(ctx, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id, "user_id": userID}))
}
