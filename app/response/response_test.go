package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
)

func newEngine(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ProvideResponseLocalizer(i18n.NewLocalizer(i18n.LANGUAGES...)), NewResponse())
	r.GET("/t", handler)
	return r
}

func serve(t *testing.T, r *gin.Engine, header http.Header) (*httptest.ResponseRecorder, Response) {
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	for k, v := range header {
		req.Header.Set(k, v[0])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestAPIErrorLocalizesServiceErrors(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		APIError(c, errors.Trace("handler", errors.New("logic", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)))
	})

	w, body := serve(t, r, http.Header{"Accept-Language": {"zh-TW,zh;q=0.9"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, body.Meta.Code)
	assert.Equal(t, "资源不存在", body.Meta.Message)

	_, body = serve(t, r, http.Header{"Accept-Language": {"fr-FR"}})
	assert.Equal(t, "Resource not found", body.Meta.Message)
}

func TestAPIErrorHidesUnknownErrors(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		APIError(c, stderrors.New("dial tcp 10.0.0.3:5432: connection refused"))
	})

	w, body := serve(t, r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, body.Meta.Message, "10.0.0.3")
}

func TestRequestIDEcho(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		APISuccess(c, map[string]string{"ok": "yes"})
	})

	w, body := serve(t, r, http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", body.Meta.RequestID)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	// oversized ids are replaced
	w, body = serve(t, r, http.Header{RequestIDHeader: {strings.Repeat("x", 100)}})
	assert.Len(t, body.Meta.RequestID, 32)
	assert.Equal(t, body.Meta.RequestID, w.Header().Get(RequestIDHeader))
}
