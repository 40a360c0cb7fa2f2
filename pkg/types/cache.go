package types

import (
	"context"
	"time"
)

// Cache 缓存与分布式锁的最小能力集合
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error
	SetNX(ctx context.Context, key, value string, expiresAt time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}
