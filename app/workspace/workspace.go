// Package workspace holds the per-user application state of StudyMate: the chat
// session list, the message buffer of the active session, the document and note
// library, the chat orchestrator and the audio job poller. Every mutation goes
// through a method of one of these objects and is pushed to the user's clients
// through the Notifier.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/types"
)

type SessionStore interface {
	Create(ctx context.Context, data types.ChatSession) error
	List(ctx context.Context, userID string, limit uint64) ([]types.ChatSession, error)
	UpdateTitle(ctx context.Context, userID, sessionID, title string) error
	UpdateLastMessage(ctx context.Context, userID, sessionID string, lastMessageAt int64, documentIDs []string) error
	Delete(ctx context.Context, userID, sessionID string) error
}

type MessageStore interface {
	Create(ctx context.Context, data types.ChatMessage) error
	ListLatest(ctx context.Context, opts types.ListMessageOptions, limit uint64) ([]types.ChatMessage, error)
	UpdateContent(ctx context.Context, userID, id, content string, timestamp int64, isError bool) error
	Delete(ctx context.Context, userID, id string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

type DocumentSource interface {
	Get(ctx context.Context, userID, id string) (*types.Document, error)
	List(ctx context.Context, userID string) ([]types.Document, error)
}

type NoteSource interface {
	Get(ctx context.Context, userID, id string) (*types.Note, error)
	List(ctx context.Context, userID string) ([]types.Note, error)
	UpdateAudioResult(ctx context.Context, userID, id string, result types.AudioResult) error
}

type AudioJobReader interface {
	Get(ctx context.Context, userID, id string) (*types.AudioJob, error)
}

// Notifier pushes workspace events to connected clients.
type Notifier interface {
	Publish(ctx context.Context, event types.Event)
}

// Locker is held until ctx is done.
type Locker interface {
	TryLock(ctx context.Context, key string) (bool, error)
}

// Translator resolves i18n message ids for notifications and stored failure text.
type Translator interface {
	Get(lang, id string) string
}

// ImageLoader fetches a stored image back for regeneration of an image turn.
type ImageLoader interface {
	LoadImage(ctx context.Context, url string) (*ai.InlineData, error)
}

type Deps struct {
	Sessions  SessionStore
	Messages  MessageStore
	Documents DocumentSource
	Notes     NoteSource
	AudioJobs AudioJobReader
	AI        ai.Chatter

	Notifier    Notifier
	Locker      Locker
	Translator  Translator
	ImageLoader ImageLoader

	Lang              string
	AudioPollInterval time.Duration
	// Now is overridden in tests
	Now func() time.Time
}

type Workspace struct {
	userID string

	Sessions *Sessions
	Messages *Messages
	Library  *Library
	Chat     *Orchestrator
	Audio    *AudioPoller

	initOnce sync.Once
	initErr  error
	cancel   context.CancelFunc
}

func New(userID string, deps Deps) *Workspace {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Lang == "" {
		deps.Lang = types.LANGUAGE_EN_KEY
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		userID: userID,
		cancel: cancel,
	}
	w.Messages = newMessages(userID, deps)
	w.Sessions = newSessions(userID, deps, w.Messages)
	w.Library = newLibrary(userID, deps)
	w.Chat = newOrchestrator(userID, deps, w.Sessions, w.Messages, w.Library)
	w.Audio = newAudioPoller(ctx, userID, deps, w.Library)
	return w
}

func (w *Workspace) UserID() string {
	return w.userID
}

// Init loads the library and the first page of sessions and activates the most
// recent session. It runs once, later calls return the first result.
func (w *Workspace) Init(ctx context.Context) error {
	w.initOnce.Do(func() {
		if w.initErr = w.Library.Load(ctx); w.initErr != nil {
			return
		}
		if w.initErr = w.Sessions.Load(ctx, SESSION_PAGE_SIZE); w.initErr != nil {
			return
		}
		if list := w.Sessions.List(); len(list) > 0 && w.Sessions.Active() == "" {
			w.initErr = w.Sessions.Select(ctx, list[0].ID)
		}
	})
	return w.initErr
}

// Close stops background polling.
func (w *Workspace) Close() {
	w.cancel()
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, types.Event) {}

func notify(ctx context.Context, n Notifier, userID string, t types.EventType, payload any) {
	n.Publish(ctx, types.Event{Type: t, UserID: userID, Payload: payload})
}

type nowFunc func() time.Time
