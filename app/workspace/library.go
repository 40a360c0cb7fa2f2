package workspace

import (
	"context"
	"database/sql"
	"net/http"
	"slices"
	"sync"

	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
)

// Library is the in-memory copy of the user's documents and notes used to build chat context.
type Library struct {
	userID    string
	documents DocumentSource
	notes     NoteSource
	notifier  Notifier

	mu       sync.RWMutex
	docList  []types.Document
	noteList []types.Note
}

func newLibrary(userID string, deps Deps) *Library {
	return &Library{
		userID:    userID,
		documents: deps.Documents,
		notes:     deps.Notes,
		notifier:  deps.Notifier,
	}
}

func (l *Library) Load(ctx context.Context) error {
	docs, err := l.documents.List(ctx, l.userID)
	if err != nil {
		return errors.New("Library.Load.DocumentStore.List", i18n.ERROR_INTERNAL, err)
	}
	notes, err := l.notes.List(ctx, l.userID)
	if err != nil {
		return errors.New("Library.Load.NoteStore.List", i18n.ERROR_INTERNAL, err)
	}

	l.mu.Lock()
	l.docList = docs
	l.noteList = notes
	l.mu.Unlock()
	return nil
}

func (l *Library) Documents() []types.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.docList)
}

func (l *Library) Notes() []types.Note {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.noteList)
}

func (l *Library) Note(id string) (types.Note, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := slices.IndexFunc(l.noteList, func(n types.Note) bool { return n.ID == id })
	if i < 0 {
		return types.Note{}, false
	}
	return l.noteList[i], true
}

// BuildContext renders the selection against the current library.
func (l *Library) BuildContext(documentIDs, noteIDs []string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return BuildContext(documentIDs, noteIDs, l.docList, l.noteList)
}

func (l *Library) PutDocument(ctx context.Context, doc types.Document) {
	l.mu.Lock()
	if i := slices.IndexFunc(l.docList, func(d types.Document) bool { return d.ID == doc.ID }); i >= 0 {
		l.docList[i] = doc
	} else {
		l.docList = append([]types.Document{doc}, l.docList...)
	}
	l.mu.Unlock()
	notify(ctx, l.notifier, l.userID, types.EVENT_DOCUMENT_UPDATED, doc)
}

func (l *Library) RemoveDocument(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docList = slices.DeleteFunc(l.docList, func(d types.Document) bool { return d.ID == id })
}

// RefreshDocument reads a document back after extraction finished. Failures are
// returned but the cached entry is kept.
func (l *Library) RefreshDocument(ctx context.Context, id string) (*types.Document, error) {
	doc, err := l.documents.Get(ctx, l.userID, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("Library.RefreshDocument.DocumentStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if doc == nil {
		return nil, errors.New("Library.RefreshDocument.DocumentStore.Get.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	l.PutDocument(ctx, *doc)
	return doc, nil
}

func (l *Library) PutNote(ctx context.Context, note types.Note) {
	l.mu.Lock()
	if i := slices.IndexFunc(l.noteList, func(n types.Note) bool { return n.ID == note.ID }); i >= 0 {
		l.noteList[i] = note
	} else {
		l.noteList = append([]types.Note{note}, l.noteList...)
	}
	l.mu.Unlock()
	notify(ctx, l.notifier, l.userID, types.EVENT_NOTE_UPDATED, note)
}

func (l *Library) RemoveNote(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.noteList = slices.DeleteFunc(l.noteList, func(n types.Note) bool { return n.ID == id })
}

// ApplyAudioResult copies a finished audio job into the cached note.
func (l *Library) ApplyAudioResult(ctx context.Context, noteID string, result types.AudioResult) {
	l.mu.Lock()
	i := slices.IndexFunc(l.noteList, func(n types.Note) bool { return n.ID == noteID })
	if i < 0 {
		l.mu.Unlock()
		return
	}
	l.noteList[i].Transcript = result.Transcript
	l.noteList[i].Summary = result.Summary
	l.noteList[i].Translation = result.Translation
	note := l.noteList[i]
	l.mu.Unlock()

	notify(ctx, l.notifier, l.userID, types.EVENT_NOTE_UPDATED, note)
}
