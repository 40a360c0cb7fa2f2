package v1

import (
	"context"

	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/security"
)

const (
	TOKEN_CONTEXT_KEY = "__studymate.access_token"
	LANGUAGE_KEY      = "__studymate.accept_language"
	APPID_KEY         = "__studymate.appid"
)

func InjectAppid(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(APPID_KEY).(string)
	return val, ok
}

// InjectTokenClaim get user token claims from context
func InjectTokenClaim(ctx context.Context) (security.TokenClaims, bool) {
	val, ok := ctx.Value(TOKEN_CONTEXT_KEY).(security.TokenClaims)
	return val, ok
}

func InjectLanguage(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(LANGUAGE_KEY).(string)
	return val, ok
}

func languageOrDefault(ctx context.Context) string {
	if lang, ok := InjectLanguage(ctx); ok && lang != "" {
		return lang
	}
	return i18n.DEFAULT_LANG
}
