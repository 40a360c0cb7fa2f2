package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var (
	ErrInvalidJWT = errors.New("invalid token")
	ErrExpiredJWT = errors.New("expired token")
)

// TokenClaims is the identity bound to every authenticated request.
type TokenClaims struct {
	Appid      string            `json:"aid"`
	User       string            `json:"u"`
	Fields     map[string]string `json:"f,omitempty"`
	ExpireTime int64             `json:"exp"`
	NotBefore  int64             `json:"nbf"`
}

func NewTokenClaims(appid, userID string, expireTime int64) TokenClaims {
	return TokenClaims{
		Appid:      appid,
		User:       userID,
		Fields:     map[string]string{},
		ExpireTime: expireTime,
		NotBefore:  time.Now().Unix() - 1,
	}
}

func (t TokenClaims) GetUser() string {
	return t.User
}

func (t TokenClaims) Field(key string) string {
	if t.Fields == nil {
		return ""
	}
	return t.Fields[key]
}

// Valid implements jwt.Claims.
func (t TokenClaims) Valid() error {
	now := time.Now().Unix()
	if t.ExpireTime < now {
		return ErrExpiredJWT
	}
	if t.NotBefore > now {
		return fmt.Errorf("token not active yet, %w", ErrInvalidJWT)
	}
	if t.User == "" {
		return fmt.Errorf("empty subject, %w", ErrInvalidJWT)
	}
	return nil
}

func GenerateJWT(info TokenClaims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, info).SignedString(secret)
}

func VerifyToken(tokenString string, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v, %w", t.Header["alg"], ErrInvalidJWT)
		}
		return secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Inner != nil {
			return nil, ve.Inner
		}
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
	}
	return claims, nil
}
