package v1

import (
	"net/http"
	"time"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/security"
)

type AuthLogic struct {
	core *core.Core
}

func NewAuthLogic(core *core.Core) *AuthLogic {
	return &AuthLogic{core: core}
}

func (l *AuthLogic) secret() ([]byte, error) {
	secret := l.core.Cfg().Security.JWTSecret
	if secret == "" {
		return nil, errors.New("AuthLogic.secret", i18n.ERROR_INTERNAL, nil).Code(http.StatusServiceUnavailable)
	}
	return []byte(secret), nil
}

// IssueToken signs a token for userID valid for the configured number of hours.
func (l *AuthLogic) IssueToken(userID string) (string, error) {
	secret, err := l.secret()
	if err != nil {
		return "", errors.Trace("AuthLogic.IssueToken", err)
	}
	if userID == "" {
		return "", errors.New("AuthLogic.IssueToken.userID", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	expire := time.Now().Add(time.Duration(l.core.Cfg().Security.TokenExpire) * time.Hour).Unix()
	token, err := security.GenerateJWT(security.NewTokenClaims(l.core.DefaultAppid(), userID, expire), secret)
	if err != nil {
		return "", errors.New("AuthLogic.IssueToken.GenerateJWT", i18n.ERROR_INTERNAL, err)
	}
	return token, nil
}

func (l *AuthLogic) ParseToken(token string) (*security.TokenClaims, error) {
	secret, err := l.secret()
	if err != nil {
		return nil, errors.Trace("AuthLogic.ParseToken", err)
	}
	claims, err := security.VerifyToken(token, secret)
	if err != nil {
		return nil, errors.New("AuthLogic.ParseToken.VerifyToken", i18n.ERROR_INVALID_TOKEN, err).Code(http.StatusUnauthorized)
	}
	return claims, nil
}
