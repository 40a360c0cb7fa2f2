package types

type AudioJobStatus string

const (
	AUDIO_JOB_STATUS_IDLE       AudioJobStatus = "idle"
	AUDIO_JOB_STATUS_PROCESSING AudioJobStatus = "processing"
	AUDIO_JOB_STATUS_COMPLETED  AudioJobStatus = "completed"
	AUDIO_JOB_STATUS_ERROR      AudioJobStatus = "error"
)

func (s AudioJobStatus) Terminal() bool {
	return s == AUDIO_JOB_STATUS_COMPLETED || s == AUDIO_JOB_STATUS_ERROR
}

type AudioJob struct {
	ID             string         `json:"id" db:"id"`
	UserID         string         `json:"user_id" db:"user_id"`
	NoteID         string         `json:"note_id" db:"note_id"`
	FileURL        string         `json:"file_url" db:"file_url"`
	MimeType       string         `json:"mime_type" db:"mime_type"`
	TargetLanguage string         `json:"target_language" db:"target_language"`
	Status         AudioJobStatus `json:"status" db:"status"`
	Transcript     string         `json:"transcript" db:"transcript"`
	Summary        string         `json:"summary" db:"summary"`
	Translation    string         `json:"translation" db:"translation"`
	ErrorMessage   string         `json:"error_message" db:"error_message"`
	CreatedAt      int64          `json:"created_at" db:"created_at"`
	UpdatedAt      int64          `json:"updated_at" db:"updated_at"`
}

func (j AudioJob) Result() AudioResult {
	return AudioResult{
		Transcript:  j.Transcript,
		Summary:     j.Summary,
		Translation: j.Translation,
	}
}
