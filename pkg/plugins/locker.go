package plugins

import (
	"context"
	"sync"
	"time"

	"github.com/quka-ai/studymate/pkg/safe"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

func NewSingleLock() *SingleLock {
	return &SingleLock{
		locks: make(map[string]bool),
	}
}

// SingleLock is an in-process lock, a key stays locked until the ctx passed to TryLock is done.
type SingleLock struct {
	mu    sync.Mutex
	locks map[string]bool
}

func (s *SingleLock) TryLock(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[key] {
		return false, nil
	}
	s.locks[key] = true
	go safe.Run(func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.locks, key)
	})
	return true, nil
}

const CACHE_LOCK_TTL = 10 * time.Minute

// CacheLock shares locks between replicas through the cache. The ttl bounds how
// long a crashed holder keeps the key.
type CacheLock struct {
	cache types.Cache
	ttl   time.Duration
}

func NewCacheLock(cache types.Cache, ttl time.Duration) *CacheLock {
	if ttl <= 0 {
		ttl = CACHE_LOCK_TTL
	}
	return &CacheLock{cache: cache, ttl: ttl}
}

func (l *CacheLock) TryLock(ctx context.Context, key string) (bool, error) {
	ok, err := l.cache.SetNX(ctx, "lock:"+key, utils.GenRandomID(), l.ttl)
	if err != nil || !ok {
		return false, err
	}
	go safe.Run(func() {
		<-ctx.Done()
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		l.cache.Del(releaseCtx, "lock:"+key)
	})
	return true, nil
}
