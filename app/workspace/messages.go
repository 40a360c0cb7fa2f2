package workspace

import (
	"context"
	"slices"
	"sync"

	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
)

const MESSAGE_PAGE_SIZE uint64 = 30

// Messages is the chronological message buffer of the active session.
type Messages struct {
	userID   string
	store    MessageStore
	notifier Notifier

	mu        sync.RWMutex
	sessionID string
	buffer    []types.LocalMessage
	hasOlder  bool
	// bumped on every session switch so stale loads are dropped
	generation uint64
}

func newMessages(userID string, deps Deps) *Messages {
	return &Messages{
		userID:   userID,
		store:    deps.Messages,
		notifier: deps.Notifier,
	}
}

// SetActiveSession clears the buffer and loads the newest page of id.
// An empty id leaves the buffer empty and disables LoadOlder.
func (m *Messages) SetActiveSession(ctx context.Context, id string) error {
	m.mu.Lock()
	m.sessionID = id
	m.buffer = nil
	m.hasOlder = false
	m.generation++
	m.mu.Unlock()

	if id == "" {
		m.publish(ctx)
		return nil
	}
	return m.LoadForSession(ctx, id)
}

// LoadForSession fetches the newest page newest-first and stores it in chronological order.
func (m *Messages) LoadForSession(ctx context.Context, id string) error {
	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()

	list, err := m.store.ListLatest(ctx, types.ListMessageOptions{
		SessionID: id,
		UserID:    m.userID,
	}, MESSAGE_PAGE_SIZE)
	if err != nil {
		return errors.New("Messages.LoadForSession.ChatMessageStore.ListLatest", i18n.ERROR_INTERNAL, err)
	}
	slices.Reverse(list)

	m.mu.Lock()
	if m.generation != gen || m.sessionID != id {
		m.mu.Unlock()
		return nil
	}
	m.buffer = confirmed(list)
	m.hasOlder = uint64(len(list)) == MESSAGE_PAGE_SIZE
	m.mu.Unlock()

	m.publish(ctx)
	return nil
}

// LoadOlder prepends the page strictly older than the oldest buffered message
// and returns how many messages were added.
func (m *Messages) LoadOlder(ctx context.Context) (int, error) {
	m.mu.RLock()
	if m.sessionID == "" || !m.hasOlder || len(m.buffer) == 0 {
		m.mu.RUnlock()
		return 0, nil
	}
	sessionID, gen, before := m.sessionID, m.generation, m.buffer[0].Timestamp
	m.mu.RUnlock()

	list, err := m.store.ListLatest(ctx, types.ListMessageOptions{
		SessionID: sessionID,
		UserID:    m.userID,
		Before:    before,
	}, MESSAGE_PAGE_SIZE)
	if err != nil {
		return 0, errors.New("Messages.LoadOlder.ChatMessageStore.ListLatest", i18n.ERROR_INTERNAL, err)
	}
	slices.Reverse(list)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return 0, nil
	}
	seen := make(map[string]struct{}, len(m.buffer))
	for _, v := range m.buffer {
		seen[v.ID] = struct{}{}
	}
	older := slices.DeleteFunc(confirmed(list), func(v types.LocalMessage) bool {
		_, ok := seen[v.ID]
		return ok
	})
	m.buffer = append(older, m.buffer...)
	m.hasOlder = uint64(len(list)) == MESSAGE_PAGE_SIZE
	m.mu.Unlock()

	if len(older) > 0 {
		m.publish(ctx)
	}
	return len(older), nil
}

// AppendPending adds msg to the end of the buffer before it is stored.
// Messages of another session are ignored.
func (m *Messages) AppendPending(ctx context.Context, msg types.ChatMessage) {
	m.mu.Lock()
	if msg.SessionID != m.sessionID {
		m.mu.Unlock()
		return
	}
	m.buffer = append(m.buffer, types.LocalMessage{ChatMessage: msg, Sync: types.SYNC_PENDING})
	m.mu.Unlock()

	m.publishMessage(ctx, msg.ID)
}

func (m *Messages) Confirm(ctx context.Context, id string) {
	m.setSync(ctx, id, types.SYNC_CONFIRMED)
}

func (m *Messages) MarkFailed(ctx context.Context, id string) {
	m.setSync(ctx, id, types.SYNC_FAILED)
}

func (m *Messages) setSync(ctx context.Context, id string, state types.SyncState) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.buffer[i].Sync = state
	m.mu.Unlock()

	m.publishMessage(ctx, id)
}

// Replace swaps the content, timestamp and error flag of a buffered message.
func (m *Messages) Replace(ctx context.Context, msg types.ChatMessage) {
	m.mu.Lock()
	i := m.indexLocked(msg.ID)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.buffer[i].Content = msg.Content
	m.buffer[i].Timestamp = msg.Timestamp
	m.buffer[i].IsError = msg.IsError
	m.buffer[i].Sync = types.SYNC_CONFIRMED
	m.mu.Unlock()

	m.publishMessage(ctx, msg.ID)
}

func (m *Messages) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	before := len(m.buffer)
	m.buffer = slices.DeleteFunc(m.buffer, func(v types.LocalMessage) bool { return v.ID == id })
	changed := len(m.buffer) != before
	m.mu.Unlock()

	if changed {
		m.publish(ctx)
	}
}

// Delete removes a message from the database and the buffer.
func (m *Messages) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, m.userID, id); err != nil {
		return errors.New("Messages.Delete.ChatMessageStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	m.Remove(ctx, id)
	return nil
}

func (m *Messages) Get(id string) (types.LocalMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexLocked(id)
	if i < 0 {
		return types.LocalMessage{}, false
	}
	return m.buffer[i], true
}

// Snapshot returns a copy of the buffer in chronological order.
func (m *Messages) Snapshot() []types.LocalMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.buffer)
}

func (m *Messages) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

func (m *Messages) HasOlder() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasOlder
}

func (m *Messages) indexLocked(id string) int {
	return slices.IndexFunc(m.buffer, func(v types.LocalMessage) bool { return v.ID == id })
}

func confirmed(list []types.ChatMessage) []types.LocalMessage {
	out := make([]types.LocalMessage, 0, len(list))
	for _, v := range list {
		out = append(out, types.LocalMessage{ChatMessage: v, Sync: types.SYNC_CONFIRMED})
	}
	return out
}

type MessagesSnapshot struct {
	SessionID string               `json:"session_id"`
	List      []types.LocalMessage `json:"list"`
	HasOlder  bool                 `json:"has_older"`
}

func (m *Messages) View() MessagesSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MessagesSnapshot{
		SessionID: m.sessionID,
		List:      slices.Clone(m.buffer),
		HasOlder:  m.hasOlder,
	}
}

func (m *Messages) publish(ctx context.Context) {
	notify(ctx, m.notifier, m.userID, types.EVENT_MESSAGES_CHANGED, m.View())
}

func (m *Messages) publishMessage(ctx context.Context, id string) {
	if msg, ok := m.Get(id); ok {
		notify(ctx, m.notifier, m.userID, types.EVENT_MESSAGE_UPSERT, msg)
	}
}
