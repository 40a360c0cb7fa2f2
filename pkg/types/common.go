package types

const (
	NO_PAGINATION = 0
)

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_CN_KEY = "zh-CN"
)

const (
	FIXED_S3_UPLOAD_PATH_PREFIX = "/assets/s3/"
	DEFAULT_APPID               = "studymate"
)

// EventType 推送给客户端的 workspace 事件类型
type EventType string

const (
	EVENT_SESSIONS_CHANGED EventType = "sessions.changed"
	EVENT_MESSAGES_CHANGED EventType = "messages.changed"
	EVENT_MESSAGE_UPSERT   EventType = "message.upsert"
	EVENT_AI_STATUS        EventType = "ai.status"
	EVENT_AUDIO_STATUS     EventType = "audio.status"
	EVENT_NOTE_UPDATED     EventType = "note.updated"
	EVENT_DOCUMENT_UPDATED EventType = "document.updated"
	EVENT_NOTIFICATION     EventType = "notification"
)

type NotificationLevel string

const (
	NOTIFY_INFO    NotificationLevel = "info"
	NOTIFY_LOADING NotificationLevel = "loading"
	NOTIFY_SUCCESS NotificationLevel = "success"
	NOTIFY_ERROR   NotificationLevel = "error"
)

type Event struct {
	Type    EventType `json:"type"`
	UserID  string    `json:"-"`
	Payload any       `json:"payload"`
}

type Notification struct {
	// Key lets a client replace a persistent notification (e.g. audio job loading).
	Key     string            `json:"key,omitempty"`
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}
