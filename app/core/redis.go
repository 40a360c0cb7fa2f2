package core

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func SetupRedis(cfg RedisConfig) redis.UniversalClient {
	dialTimeout := 5 * time.Second
	if cfg.DialTimeout > 0 {
		dialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}

	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  dialTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
	})
}

// Cache is the redis backed types.Cache, keys are prefixed with redis.key_prefix.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return c.redis.SetEx(ctx, c.key(key), value, expiresAt).Err()
}

func (c *Cache) SetNX(ctx context.Context, key, value string, expiresAt time.Duration) (bool, error) {
	return c.redis.SetNX(ctx, c.key(key), value, expiresAt).Result()
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.redis.Get(ctx, c.key(key)).Result()
}

func (c *Cache) Del(ctx context.Context, key string) error {
	return c.redis.Del(ctx, c.key(key)).Err()
}
