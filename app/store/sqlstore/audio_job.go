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
		provider.stores.AudioJobStore = NewAudioJobStore(provider)
	})
}

type AudioJobStore struct {
	CommonFields
}

func NewAudioJobStore(provider SqlProviderAchieve) *AudioJobStore {
	repo := &AudioJobStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_AUDIO_JOB)
	repo.SetAllColumns("id", "user_id", "note_id", "file_url", "mime_type", "target_language", "status",
		"transcript", "summary", "translation", "error_message", "created_at", "updated_at")
	return repo
}

func (s *AudioJobStore) Create(ctx context.Context, data types.AudioJob) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}
	if data.Status == "" {
		data.Status = types.AUDIO_JOB_STATUS_PROCESSING
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.UserID, data.NoteID, data.FileURL, data.MimeType, data.TargetLanguage, data.Status,
			data.Transcript, data.Summary, data.Translation, data.ErrorMessage, data.CreatedAt, data.UpdatedAt)
	return s.exec(ctx, query)
}

func (s *AudioJobStore) Get(ctx context.Context, userID, id string) (*types.AudioJob, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id, "user_id": userID})

	var res types.AudioJob
	if err := s.get(ctx, &res, query); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AudioJobStore) GetByID(ctx context.Context, id string) (*types.AudioJob, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	var res types.AudioJob
	if err := s.get(ctx, &res, query); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AudioJobStore) Complete(ctx context.Context, id string, result types.AudioResult) error {
	query := sq.Update(s.GetTable()).
		Set("status", types.AUDIO_JOB_STATUS_COMPLETED).
		Set("transcript", result.Transcript).
		Set("summary", result.Summary).
		Set("translation", result.Translation).
		Set("error_message", "").
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})
	return s.exec(ctx, query)
}

func (s *AudioJobStore) Fail(ctx context.Context, id, message string) error {
	query := sq.Update(s.GetTable()).
		Set("status", types.AUDIO_JOB_STATUS_ERROR).
		Set("error_message", message).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})
	return s.exec(ctx, query)
}

func (s *AudioJobStore) ListStale(ctx context.Context, before int64, limit uint64) ([]types.AudioJob, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"status": types.AUDIO_JOB_STATUS_PROCESSING}).
		Where(sq.Lt{"updated_at": before}).
		OrderBy("updated_at ASC").
		Limit(limit)

	var list []types.AudioJob
	if err := s.selectList(ctx, &list, query); err != nil {
		return nil, err
	}
	return list, nil
}
