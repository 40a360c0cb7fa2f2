package types

import "github.com/lib/pq"

type Note struct {
	ID          string         `json:"id" db:"id"`
	UserID      string         `json:"user_id" db:"user_id"`
	Title       string         `json:"title" db:"title"`
	Category    string         `json:"category" db:"category"`
	Content     string         `json:"content" db:"content"`
	AISummary   string         `json:"ai_summary" db:"ai_summary"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	DocumentID  string         `json:"document_id" db:"document_id"`
	AudioURL    string         `json:"audio_url" db:"audio_url"`
	Transcript  string         `json:"transcript" db:"transcript"`
	Summary     string         `json:"summary" db:"summary"`
	Translation string         `json:"translation" db:"translation"`
	CreatedAt   int64          `json:"created_at" db:"created_at"`
	UpdatedAt   int64          `json:"updated_at" db:"updated_at"`
}

type UpdateNoteArgs struct {
	Title     *string
	Category  *string
	Content   *string
	AISummary *string
	AudioURL  *string
	Tags      []string
}

// AudioResult 录音处理结果，回写到笔记
type AudioResult struct {
	Transcript  string `json:"transcript"`
	Summary     string `json:"summary"`
	Translation string `json:"translation"`
}
