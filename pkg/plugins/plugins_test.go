package plugins

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/app/core"
)

func TestSingleLock(t *testing.T) {
	l := NewSingleLock()

	ctx, cancel := context.WithCancel(context.Background())
	ok, err := l.TryLock(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.TryLock(context.Background(), "k")
	assert.False(t, ok)

	ok, _ = l.TryLock(context.Background(), "other")
	assert.True(t, ok)

	cancel()
	assert.Eventually(t, func() bool {
		ok, _ := l.TryLock(context.Background(), "k")
		return ok
	}, time.Second, 5*time.Millisecond)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) SetEx(ctx context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) SetNX(ctx context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestCacheLockReleasedOnDone(t *testing.T) {
	cache := &memCache{data: map[string]string{}}
	l := NewCacheLock(cache, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	ok, err := l.TryLock(ctx, "session:1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryLock(context.Background(), "session:1")
	require.NoError(t, err)
	assert.False(t, ok)

	cancel()
	assert.Eventually(t, func() bool {
		v, _ := cache.Get(context.Background(), "lock:session:1")
		return v == ""
	}, time.Second, 5*time.Millisecond)
}

func TestLocalFileStorage(t *testing.T) {
	fs := &LocalFileStorage{StaticDomain: "http://localhost/files", Root: t.TempDir()}
	ctx := context.Background()

	require.NoError(t, fs.SaveFile(ctx, "/assets/u1/a.txt", []byte("hello"), "text/plain"))
	res, err := fs.DownloadFile(ctx, "/assets/u1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(res.File))
	assert.Contains(t, res.FileType, "text/plain")

	require.NoError(t, fs.DeleteFile(ctx, "/assets/u1/a.txt"))
	_, err = fs.DownloadFile(ctx, "/assets/u1/a.txt")
	assert.Error(t, err)
}

func TestUseLimiter(t *testing.T) {
	p := newSelfHostMode()
	l := p.UseLimiter(nil, "chat:u1", "chat", core.WithLimit(1))
	// burst is twice the limit
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	assert.Same(t, l, p.UseLimiter(nil, "chat:u1", "chat"))
}

func TestNoneFileStorage(t *testing.T) {
	s := SetupObjectStorage(core.ObjectStorageDriver{})
	assert.ErrorIs(t, s.SaveFile(context.Background(), "/a", nil, ""), ErrStorageUnsupported)
}
