package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalizerGet(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")

	assert.Equal(t, "Resource not found", l.Get("en", ERROR_NOT_FOUND))
	assert.Equal(t, "资源不存在", l.Get("zh-CN", ERROR_NOT_FOUND))
	// unknown language falls back to the id
	assert.Equal(t, ERROR_NOT_FOUND, l.Get("fr", ERROR_NOT_FOUND))
}
