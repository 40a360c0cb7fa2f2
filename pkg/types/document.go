package types

type DocumentStatus string

const (
	DOCUMENT_STATUS_UPLOADED   DocumentStatus = "uploaded"
	DOCUMENT_STATUS_EXTRACTING DocumentStatus = "extracting"
	DOCUMENT_STATUS_READY      DocumentStatus = "ready"
	DOCUMENT_STATUS_FAILED     DocumentStatus = "failed"
)

type Document struct {
	ID        string         `json:"id" db:"id"`
	UserID    string         `json:"user_id" db:"user_id"`
	Title     string         `json:"title" db:"title"`
	FileName  string         `json:"file_name" db:"file_name"`
	FileType  string         `json:"file_type" db:"file_type"`
	FileURL   string         `json:"file_url" db:"file_url"`
	Size      int64          `json:"size" db:"size"`
	Content   string         `json:"content" db:"content"`
	Structure string         `json:"structure" db:"structure"`
	Status    DocumentStatus `json:"status" db:"status"`
	CreatedAt int64          `json:"created_at" db:"created_at"`
	UpdatedAt int64          `json:"updated_at" db:"updated_at"`
}
