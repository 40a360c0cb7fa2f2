package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/types"
)

func TestRegistryReusesWorkspace(t *testing.T) {
	env := newTestEnv()
	var created int
	reg := NewRegistry(func(userID string) *Workspace {
		created++
		return env.workspace(userID)
	})
	defer reg.CloseAll()

	a, err := reg.Get(context.Background(), "u1")
	require.NoError(t, err)
	b, err := reg.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, created)

	assert.Equal(t, 1, reg.Len())
}

func TestRegistryConcurrentGet(t *testing.T) {
	env := newTestEnv()
	var created atomic.Int32
	reg := NewRegistry(func(userID string) *Workspace {
		created.Add(1)
		return env.workspace(userID)
	})

	users := []string{"u1", "u2", "u3"}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			ws, err := reg.Get(context.Background(), userID)
			assert.NoError(t, err)
			assert.NotNil(t, ws)
		}(users[i%len(users)])
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		reg.EvictIdle(time.Hour)
	}()
	wg.Wait()

	assert.Equal(t, int32(len(users)), created.Load())
	assert.Equal(t, len(users), reg.Len())
	reg.CloseAll()
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryRetriesFailedInit(t *testing.T) {
	env := newTestEnv()
	fail := true
	env.sessions.ListFunc = func(ctx context.Context, userID string, limit uint64) ([]types.ChatSession, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return nil, nil
	}
	reg := NewRegistry(env.workspace)

	_, err := reg.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, 0, reg.Len())

	fail = false
	ws, err := reg.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, ws)
}

func TestRegistryEvictIdle(t *testing.T) {
	env := newTestEnv()
	reg := NewRegistry(env.workspace)
	_, err := reg.Get(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 0, reg.EvictIdle(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, reg.EvictIdle(time.Millisecond))
	assert.Equal(t, 0, reg.Len())
}
