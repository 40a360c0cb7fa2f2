package core

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quka-ai/studymate/pkg/object-storage/s3"
)

type Plugins interface {
	Name() string
	Install(*Core) error
	DefaultAppid() string
	TryLock(ctx context.Context, key string) (bool, error)
	UseLimiter(c *gin.Context, key string, method string, opts ...LimitOption) Limiter
	FileStorage() FileStorage
}

type LimitConfig struct {
	Limit int
	Every time.Duration
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

func WithRange(r time.Duration) LimitOption {
	return func(l *LimitConfig) {
		l.Every = r
	}
}

// FileStorage interface defines methods for file operations.
type FileStorage interface {
	GetStaticDomain() string
	SaveFile(ctx context.Context, fullPath string, content []byte, contentType string) error
	DeleteFile(ctx context.Context, fullFilePath string) error
	GenGetObjectPreSignURL(ctx context.Context, url string) (string, error)
	DownloadFile(ctx context.Context, filePath string) (*s3.GetObjectResult, error)
}

type Limiter interface {
	Allow() bool
}

type SetupFunc func() Plugins

func (c *Core) InstallPlugins(p Plugins) {
	if err := p.Install(c); err != nil {
		panic(err)
	}
	c.Plugins = p
}
