package types

import "github.com/lib/pq"

type MessageRole string

const (
	MESSAGE_ROLE_USER      MessageRole = "user"
	MESSAGE_ROLE_ASSISTANT MessageRole = "assistant"
)

// SyncState 本地缓存条目与数据库的同步状态
type SyncState string

const (
	SYNC_PENDING   SyncState = "pending"
	SYNC_CONFIRMED SyncState = "confirmed"
	SYNC_FAILED    SyncState = "failed"
)

type ChatMessage struct {
	ID                  string         `json:"id" db:"id"`
	SessionID           string         `json:"session_id" db:"session_id"`
	UserID              string         `json:"user_id" db:"user_id"`
	Content             string         `json:"content" db:"content"`
	Role                MessageRole    `json:"role" db:"role"`
	Timestamp           int64          `json:"timestamp" db:"timestamp"`
	IsError             bool           `json:"is_error" db:"is_error"`
	AttachedDocumentIDs pq.StringArray `json:"attached_document_ids" db:"attached_document_ids"`
	AttachedNoteIDs     pq.StringArray `json:"attached_note_ids" db:"attached_note_ids"`
	ImageURL            string         `json:"image_url,omitempty" db:"image_url"`
	ImageMimeType       string         `json:"image_mime_type,omitempty" db:"image_mime_type"`
}

// LocalMessage is a buffered message plus its reconciliation state.
type LocalMessage struct {
	ChatMessage
	Sync SyncState `json:"sync"`
}

func (m ChatMessage) HasAttachments() bool {
	return len(m.AttachedDocumentIDs) > 0 || len(m.AttachedNoteIDs) > 0
}

type ListMessageOptions struct {
	SessionID string
	UserID    string
	// Before 仅返回 timestamp 严格小于该值的消息，0 表示不限制
	Before int64
}
