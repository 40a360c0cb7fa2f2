package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/text/language"

	"github.com/quka-ai/studymate/app/core"
	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
)

func I18n() gin.HandlerFunc {
	return response.ProvideResponseLocalizer(i18n.NewLocalizer(i18n.LANGUAGES...))
}

// AcceptLanguage 目前服务端支持 en: English, zh-CN: 简体中文
func AcceptLanguage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(v1.LANGUAGE_KEY, ParseLanguage(ctx.Request.Header.Get("Accept-Language")))
	}
}

// ParseLanguage picks the first language of an Accept-Language header, zh variants map to zh-CN.
func ParseLanguage(header string) string {
	if header == "" {
		return types.LANGUAGE_EN_KEY
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return types.LANGUAGE_EN_KEY
	}
	base, _ := tags[0].Base()
	return lo.If(base.String() == "zh", types.LANGUAGE_CN_KEY).Else(types.LANGUAGE_EN_KEY)
}

const (
	AUTH_TOKEN_HEADER_KEY = "X-Authorization"
	APPID_HEADER          = "X-Appid"
)

func SetAppid(core *core.Core) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(v1.APPID_KEY, core.DefaultAppid())
	}
}

// Authorization reads the jwt from the X-Authorization header, with or without a Bearer prefix.
func Authorization(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader(AUTH_TOKEN_HEADER_KEY), "Bearer "))
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		}
		if err := ParseAuthToken(c, token, core); err != nil {
			response.APIError(c, errors.Trace("middleware.Authorization", err))
		}
	}
}

// AuthorizationFromQuery is used by the websocket endpoint, browsers cannot set headers there.
func AuthorizationFromQuery(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ParseAuthToken(c, c.Query("token"), core); err != nil {
			response.APIError(c, errors.Trace("middleware.AuthorizationFromQuery", err))
		}
	}
}

func ParseAuthToken(c *gin.Context, tokenValue string, core *core.Core) error {
	if tokenValue == "" {
		return errors.New("ParseAuthToken.empty", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}

	claims, err := v1.NewAuthLogic(core).ParseToken(tokenValue)
	if err != nil {
		return errors.Trace("ParseAuthToken", err)
	}
	if claims.User == "" {
		return errors.New("ParseAuthToken.user", i18n.ERROR_INVALID_TOKEN, nil).Code(http.StatusUnauthorized)
	}

	c.Set(v1.TOKEN_CONTEXT_KEY, *claims)
	c.Set(response.UserKey, claims.User)
	return nil
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Accept-Language, Authorization, X-Authorization, X-Appid")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}

type LimiterFunc func(key string, opts ...core.LimitOption) gin.HandlerFunc

func UseLimit(appCore *core.Core, operation string, genKeyFunc func(c *gin.Context) string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appCore.UseLimiter(c, genKeyFunc(c), operation, opts...).Allow() {
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}

// Metrics 记录接口耗时与错误码
func Metrics(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		timer := appCore.Metrics().ApiResponseTimer(route)
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			appCore.Metrics().ApiErrorInc(c.Request.Method, route, status)
		}
	}
}
