package workspace

import (
	"context"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/quka-ai/studymate/pkg/types"
)

type registryEntry struct {
	once     sync.Once
	ws       *Workspace
	lastSeen time.Time
	mu       sync.Mutex
}

// Registry keeps one workspace per user for the lifetime of the process.
type Registry struct {
	items   cmap.ConcurrentMap[string, *registryEntry]
	factory func(userID string) *Workspace
}

func NewRegistry(factory func(userID string) *Workspace) *Registry {
	return &Registry{
		items:   cmap.New[*registryEntry](),
		factory: factory,
	}
}

// Get returns the initialized workspace of userID, creating it on first use.
// A workspace whose initialization failed is dropped so the next call retries.
func (r *Registry) Get(ctx context.Context, userID string) (*Workspace, error) {
	entry := r.items.Upsert(userID, nil, func(exist bool, old, _ *registryEntry) *registryEntry {
		if exist {
			return old
		}
		return &registryEntry{lastSeen: time.Now()}
	})
	entry.once.Do(func() {
		ws := r.factory(userID)
		entry.mu.Lock()
		entry.ws = ws
		entry.mu.Unlock()
	})

	if err := entry.ws.Init(ctx); err != nil {
		r.items.RemoveCb(userID, func(_ string, v *registryEntry, exists bool) bool {
			return exists && v == entry
		})
		entry.ws.Close()
		return nil, err
	}

	entry.mu.Lock()
	entry.lastSeen = time.Now()
	entry.mu.Unlock()
	return entry.ws, nil
}

// EvictIdle closes workspaces unused for longer than idle and returns how many were closed.
func (r *Registry) EvictIdle(idle time.Duration) int {
	deadline := time.Now().Add(-idle)
	var evicted int
	for _, userID := range r.items.Keys() {
		removed := r.items.RemoveCb(userID, func(_ string, v *registryEntry, exists bool) bool {
			if !exists {
				return false
			}
			v.mu.Lock()
			defer v.mu.Unlock()
			if v.lastSeen.After(deadline) {
				return false
			}
			if v.ws != nil {
				if v.ws.Audio.Status().Status == types.AUDIO_JOB_STATUS_PROCESSING {
					return false
				}
				v.ws.Close()
			}
			return true
		})
		if removed {
			evicted++
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	return r.items.Count()
}

func (r *Registry) CloseAll() {
	r.items.IterCb(func(_ string, v *registryEntry) {
		v.mu.Lock()
		ws := v.ws
		v.mu.Unlock()
		if ws != nil {
			ws.Close()
		}
	})
	r.items.Clear()
}
