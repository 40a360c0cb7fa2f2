package workspace

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/types"
)

type memSessionStore struct {
	mu   sync.Mutex
	rows []types.ChatSession

	ListFunc func(ctx context.Context, userID string, limit uint64) ([]types.ChatSession, error)
}

func (s *memSessionStore) Create(ctx context.Context, data types.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, data)
	return nil
}

func (s *memSessionStore) List(ctx context.Context, userID string, limit uint64) ([]types.ChatSession, error) {
	if s.ListFunc != nil {
		return s.ListFunc(ctx, userID, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ChatSession
	for _, v := range s.rows {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastMessageAt > out[j].LastMessageAt })
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memSessionStore) UpdateTitle(ctx context.Context, userID, sessionID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == sessionID {
			s.rows[i].Title = title
		}
	}
	return nil
}

func (s *memSessionStore) UpdateLastMessage(ctx context.Context, userID, sessionID string, lastMessageAt int64, documentIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == sessionID {
			s.rows[i].LastMessageAt = lastMessageAt
			s.rows[i].DocumentIDs = slices.Clone(documentIDs)
		}
	}
	return nil
}

func (s *memSessionStore) Delete(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = slices.DeleteFunc(s.rows, func(v types.ChatSession) bool { return v.ID == sessionID })
	return nil
}

func (s *memSessionStore) all() []types.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

type memMessageStore struct {
	mu   sync.Mutex
	rows []types.ChatMessage

	CreateFunc        func(ctx context.Context, data types.ChatMessage) error
	DeleteSessionFunc func(ctx context.Context, userID, sessionID string) error
}

func (s *memMessageStore) Create(ctx context.Context, data types.ChatMessage) error {
	if s.CreateFunc != nil {
		if err := s.CreateFunc(ctx, data); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, data)
	return nil
}

func (s *memMessageStore) ListLatest(ctx context.Context, opts types.ListMessageOptions, limit uint64) ([]types.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ChatMessage
	for _, v := range s.rows {
		if v.SessionID != opts.SessionID || v.UserID != opts.UserID {
			continue
		}
		if opts.Before > 0 && v.Timestamp >= opts.Before {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memMessageStore) UpdateContent(ctx context.Context, userID, id, content string, timestamp int64, isError bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Content = content
			s.rows[i].Timestamp = timestamp
			s.rows[i].IsError = isError
			return nil
		}
	}
	return errors.New("not found")
}

func (s *memMessageStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = slices.DeleteFunc(s.rows, func(v types.ChatMessage) bool { return v.ID == id })
	return nil
}

func (s *memMessageStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if s.DeleteSessionFunc != nil {
		if err := s.DeleteSessionFunc(ctx, userID, sessionID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = slices.DeleteFunc(s.rows, func(v types.ChatMessage) bool { return v.SessionID == sessionID })
	return nil
}

func (s *memMessageStore) all() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

type fakeDocuments struct {
	docs []types.Document
}

func (f *fakeDocuments) Get(ctx context.Context, userID, id string) (*types.Document, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeDocuments) List(ctx context.Context, userID string) ([]types.Document, error) {
	return slices.Clone(f.docs), nil
}

type fakeNotes struct {
	mu    sync.Mutex
	notes []types.Note

	UpdateAudioResultFunc func(ctx context.Context, userID, id string, result types.AudioResult) error
}

func (f *fakeNotes) Get(ctx context.Context, userID, id string) (*types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notes {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, nil
}

func (f *fakeNotes) List(ctx context.Context, userID string) ([]types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.notes), nil
}

func (f *fakeNotes) UpdateAudioResult(ctx context.Context, userID, id string, result types.AudioResult) error {
	if f.UpdateAudioResultFunc != nil {
		return f.UpdateAudioResultFunc(ctx, userID, id, result)
	}
	return nil
}

type fakeJobs struct {
	GetFunc func(ctx context.Context, userID, id string) (*types.AudioJob, error)
}

func (f *fakeJobs) Get(ctx context.Context, userID, id string) (*types.AudioJob, error) {
	return f.GetFunc(ctx, userID, id)
}

type fakeChatter struct {
	ChatFunc func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error)
}

func (f *fakeChatter) Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
	return f.ChatFunc(ctx, req)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []types.Event
}

func (n *recordingNotifier) Publish(ctx context.Context, event types.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) ofType(t types.EventType) []types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []types.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// stepClock advances one millisecond per call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type testEnv struct {
	sessions *memSessionStore
	messages *memMessageStore
	docs     *fakeDocuments
	notes    *fakeNotes
	jobs     *fakeJobs
	chat     *fakeChatter
	notifier *recordingNotifier
	clock    *stepClock
}

func newTestEnv() *testEnv {
	return &testEnv{
		sessions: &memSessionStore{},
		messages: &memMessageStore{},
		docs:     &fakeDocuments{},
		notes:    &fakeNotes{},
		jobs:     &fakeJobs{},
		chat: &fakeChatter{ChatFunc: func(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
			return ai.ChatResult{Content: "answer"}, nil
		}},
		notifier: &recordingNotifier{},
		clock:    newStepClock(),
	}
}

func (e *testEnv) workspace(userID string) *Workspace {
	return New(userID, Deps{
		Sessions:          e.sessions,
		Messages:          e.messages,
		Documents:         e.docs,
		Notes:             e.notes,
		AudioJobs:         e.jobs,
		AI:                e.chat,
		Notifier:          e.notifier,
		AudioPollInterval: 5 * time.Millisecond,
		Now:               e.clock.Now,
	})
}
