package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/quka-ai/studymate/pkg/types"
)

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, types.LANGUAGE_EN_KEY, ParseLanguage(""))
	assert.Equal(t, types.LANGUAGE_CN_KEY, ParseLanguage("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, types.LANGUAGE_CN_KEY, ParseLanguage("zh-TW"))
	assert.Equal(t, types.LANGUAGE_EN_KEY, ParseLanguage("fr-FR,en;q=0.5"))
	assert.Equal(t, types.LANGUAGE_EN_KEY, ParseLanguage(";;;"))
}

func TestCorsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Cors)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
