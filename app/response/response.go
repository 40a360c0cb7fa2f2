package response

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/utils"
)

func ProvideResponseLocalizer(l i18n.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("i18n", l)
	}
}

func InjectResponseLocalizer(c *gin.Context) i18n.Localizer {
	return c.MustGet("i18n").(i18n.Localizer)
}

const (
	RequestIDKey    = "request_id"
	ResponseKey     = "response_key"
	UserKey         = "user"
	startedAtKey    = "response_started_at"
	RequestIDHeader = "X-Request-ID"

	// 客户端传入的 request id 超过该长度时重新生成
	maxRequestIDLen = 64
)

// Response 响应结构体定义
type Response struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// Meta 响应meta定义
type Meta struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// GetLangFromRequestOrDefault maps the first Accept-Language tag onto a loaded locale.
func GetLangFromRequestOrDefault(c *gin.Context) string {
	tags, _, err := language.ParseAcceptLanguage(c.Request.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return i18n.DEFAULT_LANG
	}
	if base, _ := tags[0].Base(); base.String() == "zh" {
		return "zh-CN"
	}
	if lang := tags[0].String(); i18n.ALLOW_LANG[lang] {
		return lang
	}
	return i18n.DEFAULT_LANG
}

// APIError writes err as the response meta. Errors that did not come from the
// service layer are reported as internal without their text.
func APIError(c *gin.Context, err error) {
	c.Abort()
	l := InjectResponseLocalizer(c)
	lang := GetLangFromRequestOrDefault(c)

	res := c.MustGet(ResponseKey).(*Response)
	var cerr *errors.CustomizedError
	if errors.As(err, &cerr) {
		res.Meta.Code = cerr.GetCode()
		if res.Meta.Code == 0 {
			res.Meta.Code = http.StatusInternalServerError
		}
		res.Meta.Message = l.Get(lang, cerr.Message())
	} else {
		res.Meta.Code = http.StatusInternalServerError
		res.Meta.Message = l.Get(lang, i18n.ERROR_INTERNAL)
	}

	c.JSON(res.Meta.Code, res)
	attrs := append(requestAttrs(c, res), slog.String("error", err.Error()))
	if res.Meta.Code >= http.StatusInternalServerError {
		slog.Error("response error", attrs...)
		return
	}
	slog.Warn("response error", attrs...)
}

// APISuccess api响应成功
func APISuccess(c *gin.Context, data any) {
	c.Abort()
	res := c.MustGet(ResponseKey).(*Response)
	if data != nil {
		res.Data = data
	}
	c.JSON(http.StatusOK, res)
	slog.Info("request success", requestAttrs(c, res)...)
}

func requestAttrs(c *gin.Context, res *Response) []any {
	attrs := []any{
		slog.String("request_id", res.Meta.RequestID),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("code", res.Meta.Code),
		slog.String("platform", c.Request.Header.Get("Platform")),
		slog.String("version", c.Request.Header.Get("Version")),
	}
	// multipart 上传不记录 body
	if q := c.Request.URL.RawQuery; q != "" {
		attrs = append(attrs, slog.String("query", q))
	}
	if started, ok := c.Get(startedAtKey); ok {
		attrs = append(attrs, slog.Int64("latency_ms", time.Since(started.(time.Time)).Milliseconds()))
	}
	if uid := c.GetString(UserKey); uid != "" {
		attrs = append(attrs, slog.String("user_id", uid))
	}
	return attrs
}

// NewResponse prepares the response body of every request. The request id is
// taken from X-Request-ID when the client sends a usable one.
func NewResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = utils.GenRandomID()
		}
		c.Set(startedAtKey, time.Now())
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Set(ResponseKey, &Response{Meta: Meta{RequestID: id}})
	}
}
