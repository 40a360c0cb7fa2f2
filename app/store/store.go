package store

import (
	"context"

	"github.com/quka-ai/studymate/pkg/sqlstore"
	"github.com/quka-ai/studymate/pkg/types"
)

type ChatSessionStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ChatSession) error
	Get(ctx context.Context, userID, sessionID string) (*types.ChatSession, error)
	// List 按 last_message_at 倒序返回最多 limit 条
	List(ctx context.Context, userID string, limit uint64) ([]types.ChatSession, error)
	UpdateTitle(ctx context.Context, userID, sessionID, title string) error
	UpdateLastMessage(ctx context.Context, userID, sessionID string, lastMessageAt int64, documentIDs []string) error
	Delete(ctx context.Context, userID, sessionID string) error
}

type ChatMessageStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ChatMessage) error
	// ListLatest 按 timestamp 倒序返回最多 limit 条
	ListLatest(ctx context.Context, opts types.ListMessageOptions, limit uint64) ([]types.ChatMessage, error)
	UpdateContent(ctx context.Context, userID, id, content string, timestamp int64, isError bool) error
	Delete(ctx context.Context, userID, id string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

type DocumentStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Document) error
	Get(ctx context.Context, userID, id string) (*types.Document, error)
	List(ctx context.Context, userID string) ([]types.Document, error)
	UpdateContent(ctx context.Context, userID, id, content, structure string, status types.DocumentStatus) error
	Delete(ctx context.Context, userID, id string) error
}

type NoteStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Note) error
	Get(ctx context.Context, userID, id string) (*types.Note, error)
	List(ctx context.Context, userID string) ([]types.Note, error)
	Update(ctx context.Context, userID, id string, args types.UpdateNoteArgs) error
	UpdateAudioResult(ctx context.Context, userID, id string, result types.AudioResult) error
	Delete(ctx context.Context, userID, id string) error
}

type AudioJobStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.AudioJob) error
	Get(ctx context.Context, userID, id string) (*types.AudioJob, error)
	GetByID(ctx context.Context, id string) (*types.AudioJob, error)
	Complete(ctx context.Context, id string, result types.AudioResult) error
	Fail(ctx context.Context, id, message string) error
	// ListStale 返回 updated_at 早于 before 仍处于 processing 的任务
	ListStale(ctx context.Context, before int64, limit uint64) ([]types.AudioJob, error)
}
