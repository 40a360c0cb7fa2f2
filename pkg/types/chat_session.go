package types

import "github.com/lib/pq"

type ChatSession struct {
	ID            string         `json:"id" db:"id"`
	UserID        string         `json:"user_id" db:"user_id"`
	Title         string         `json:"title" db:"title"`
	DocumentIDs   pq.StringArray `json:"document_ids" db:"document_ids"`
	CreatedAt     int64          `json:"created_at" db:"created_at"`
	UpdatedAt     int64          `json:"updated_at" db:"updated_at"`
	LastMessageAt int64          `json:"last_message_at" db:"last_message_at"`
}

const DEFAULT_CHAT_SESSION_TITLE = "New Chat"
