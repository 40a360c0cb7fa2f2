package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

var LANGUAGES = []string{"en", "zh-CN"}

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"
	ERROR_INVALID_TOKEN     = "error.invalid.token"

	ERROR_CHAT_BUSY             = "error.chat.busy"
	ERROR_CHAT_NO_SESSION       = "error.chat.no_session"
	ERROR_CHAT_NOT_REGENERATE   = "error.chat.not_regenerable"
	ERROR_AI_OVERLOADED         = "error.ai.overloaded"
	ERROR_AI_EMPTY_RESPONSE     = "error.ai.empty_response"
	ERROR_AI_REQUEST_FAILED     = "error.ai.request_failed"
	ERROR_AI_NOT_CONFIGURED     = "error.ai.not_configured"
	ERROR_DOCUMENT_UNSUPPORTED  = "error.document.unsupported"
	ERROR_DOCUMENT_EXTRACT      = "error.document.extract_failed"
	ERROR_FILE_TOO_LARGE        = "error.file.too_large"
	ERROR_AUDIO_JOB_FAILED      = "error.audio.job_failed"
	ERROR_AUDIO_JOB_MISSING_ID  = "error.audio.missing_job_id"
	ERROR_AUDIO_JOB_READ_FAILED = "error.audio.read_failed"
	ERROR_AUDIO_JOB_FINISHED    = "error.audio.job_finished"

	MESSAGE_AUDIO_PROCESSING = "message.audio.processing"
	MESSAGE_AUDIO_COMPLETED  = "message.audio.completed"
)
