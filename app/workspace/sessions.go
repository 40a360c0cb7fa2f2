package workspace

import (
	"context"
	"net/http"
	"slices"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

const (
	SESSION_PAGE_SIZE      uint64 = 20
	SESSION_PAGE_INCREMENT uint64 = 20
)

// Sessions caches a growing window of the user's chat sessions ordered by last activity.
type Sessions struct {
	userID   string
	store    SessionStore
	messages *Messages
	notifier Notifier
	now      nowFunc

	mu       sync.RWMutex
	list     []types.ChatSession
	pageSize uint64
	hasMore  bool
	activeID string
}

func newSessions(userID string, deps Deps, messages *Messages) *Sessions {
	return &Sessions{
		userID:   userID,
		store:    deps.Sessions,
		messages: messages,
		notifier: deps.Notifier,
		now:      deps.Now,
		pageSize: SESSION_PAGE_SIZE,
	}
}

// Load replaces the cached window with the newest pageSize sessions.
// HasMore is a guess: a full page means there may be more.
func (s *Sessions) Load(ctx context.Context, pageSize uint64) error {
	if pageSize == 0 {
		pageSize = SESSION_PAGE_SIZE
	}
	list, err := s.store.List(ctx, s.userID, pageSize)
	if err != nil {
		return errors.New("Sessions.Load.ChatSessionStore.List", i18n.ERROR_INTERNAL, err)
	}

	s.mu.Lock()
	s.list = list
	s.pageSize = pageSize
	s.hasMore = uint64(len(list)) == pageSize
	s.sortLocked()
	s.mu.Unlock()

	s.publish(ctx)
	return nil
}

// LoadMore grows the window by one increment and reloads it from scratch.
func (s *Sessions) LoadMore(ctx context.Context) error {
	s.mu.RLock()
	next := s.pageSize + SESSION_PAGE_INCREMENT
	s.mu.RUnlock()
	return s.Load(ctx, next)
}

// Create inserts a session seeded with documentIDs and makes it active.
func (s *Sessions) Create(ctx context.Context, documentIDs []string) (*types.ChatSession, error) {
	if s.userID == "" {
		return nil, errors.New("Sessions.Create", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}

	now := s.now().UnixMilli()
	session := types.ChatSession{
		ID:            utils.GenSpecIDStr(),
		UserID:        s.userID,
		Title:         types.DEFAULT_CHAT_SESSION_TITLE,
		DocumentIDs:   lo.Uniq(documentIDs),
		CreatedAt:     now,
		UpdatedAt:     now,
		LastMessageAt: now,
	}
	if session.DocumentIDs == nil {
		session.DocumentIDs = []string{}
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, errors.New("Sessions.Create.ChatSessionStore.Create", i18n.ERROR_INTERNAL, err)
	}

	if err := s.Load(ctx, SESSION_PAGE_SIZE); err != nil {
		return nil, errors.Trace("Sessions.Create", err)
	}
	// the row may sit outside the first page when clocks disagree
	s.mu.Lock()
	if _, ok := s.indexLocked(session.ID); !ok {
		s.list = append(s.list, session)
		s.sortLocked()
	}
	s.mu.Unlock()

	if err := s.Select(ctx, session.ID); err != nil {
		return nil, errors.Trace("Sessions.Create", err)
	}
	return &session, nil
}

// Delete removes the session's messages, then the session row. A failure leaves
// the cache untouched. When it was active the most recently active remaining
// session is selected, or the selection is cleared.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	if err := s.messages.store.DeleteSession(ctx, s.userID, id); err != nil {
		return errors.New("Sessions.Delete.ChatMessageStore.DeleteSession", i18n.ERROR_INTERNAL, err)
	}
	if err := s.store.Delete(ctx, s.userID, id); err != nil {
		return errors.New("Sessions.Delete.ChatSessionStore.Delete", i18n.ERROR_INTERNAL, err)
	}

	s.mu.Lock()
	s.list = slices.DeleteFunc(s.list, func(item types.ChatSession) bool { return item.ID == id })
	wasActive := s.activeID == id
	next := ""
	if wasActive && len(s.list) > 0 {
		next = s.list[0].ID
	}
	s.mu.Unlock()

	s.publish(ctx)
	if !wasActive {
		return nil
	}
	return s.Select(ctx, next)
}

func (s *Sessions) Rename(ctx context.Context, id, title string) error {
	if err := s.store.UpdateTitle(ctx, s.userID, id, title); err != nil {
		return errors.New("Sessions.Rename.ChatSessionStore.UpdateTitle", i18n.ERROR_INTERNAL, err)
	}

	s.mu.Lock()
	if i, ok := s.indexLocked(id); ok {
		s.list[i].Title = title
		s.list[i].UpdatedAt = s.now().UnixMilli()
	}
	s.mu.Unlock()

	s.publish(ctx)
	return nil
}

// Touch records a new message on the cached entry and re-sorts the list.
func (s *Sessions) Touch(ctx context.Context, id string, lastMessageAt int64, documentIDs []string) {
	s.mu.Lock()
	if i, ok := s.indexLocked(id); ok {
		s.list[i].LastMessageAt = lastMessageAt
		s.list[i].UpdatedAt = lastMessageAt
		s.list[i].DocumentIDs = slices.Clone(documentIDs)
		s.sortLocked()
	}
	s.mu.Unlock()

	s.publish(ctx)
}

// Select makes id the active session and reloads the message buffer. An empty id clears the selection.
func (s *Sessions) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	if id != "" {
		if _, ok := s.indexLocked(id); !ok {
			s.mu.Unlock()
			return errors.New("Sessions.Select", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
		}
	}
	s.activeID = id
	s.mu.Unlock()

	return s.messages.SetActiveSession(ctx, id)
}

func (s *Sessions) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

func (s *Sessions) Get(id string) (types.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.indexLocked(id)
	if !ok {
		return types.ChatSession{}, false
	}
	return s.list[i], true
}

func (s *Sessions) List() []types.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.list)
}

func (s *Sessions) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

func (s *Sessions) PageSize() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageSize
}

func (s *Sessions) indexLocked(id string) (int, bool) {
	for i, item := range s.list {
		if item.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Sessions) sortLocked() {
	sort.SliceStable(s.list, func(i, j int) bool {
		return s.list[i].LastMessageAt > s.list[j].LastMessageAt
	})
}

type SessionsSnapshot struct {
	List     []types.ChatSession `json:"list"`
	HasMore  bool                `json:"has_more"`
	ActiveID string              `json:"active_id"`
}

func (s *Sessions) Snapshot() SessionsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionsSnapshot{
		List:     slices.Clone(s.list),
		HasMore:  s.hasMore,
		ActiveID: s.activeID,
	}
}

func (s *Sessions) publish(ctx context.Context) {
	notify(ctx, s.notifier, s.userID, types.EVENT_SESSIONS_CHANGED, s.Snapshot())
}
