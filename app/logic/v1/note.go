package v1

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/app/workspace"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

// NOTE_SOURCE_LIMIT bounds the document text sent for note generation.
const NOTE_SOURCE_LIMIT = 30000

type NoteLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewNoteLogic(ctx context.Context, core *core.Core) *NoteLogic {
	return &NoteLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

func (l *NoteLogic) ListNotes() ([]types.Note, error) {
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("NoteLogic.ListNotes", err)
	}
	return ws.Library.Notes(), nil
}

func (l *NoteLogic) GetNote(id string) (*types.Note, error) {
	note, err := l.core.Store().NoteStore().Get(l.ctx, l.GetUserInfo().User, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("NoteLogic.GetNote.NoteStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if note == nil {
		return nil, errors.New("NoteLogic.GetNote.NoteStore.Get.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return note, nil
}

type NoteArgs struct {
	Title     string
	Category  string
	Content   string
	AISummary string
	Tags      []string
}

func (l *NoteLogic) CreateNote(args NoteArgs) (*types.Note, error) {
	if strings.TrimSpace(args.Title) == "" {
		return nil, errors.New("NoteLogic.CreateNote.title", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	return l.create(types.Note{
		Title:     strings.TrimSpace(args.Title),
		Category:  args.Category,
		Content:   args.Content,
		AISummary: args.AISummary,
		Tags:      lo.Uniq(lo.Compact(args.Tags)),
	})
}

func (l *NoteLogic) create(note types.Note) (*types.Note, error) {
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("NoteLogic.create", err)
	}

	now := time.Now().Unix()
	note.ID = utils.GenSpecIDStr()
	note.UserID = l.GetUserInfo().User
	note.CreatedAt, note.UpdatedAt = now, now
	if note.Tags == nil {
		note.Tags = []string{}
	}
	if err = l.core.Store().NoteStore().Create(l.ctx, note); err != nil {
		return nil, errors.New("NoteLogic.create.NoteStore.Create", i18n.ERROR_INTERNAL, err)
	}
	ws.Library.PutNote(l.ctx, note)
	return &note, nil
}

type UpdateNoteArgs struct {
	Title     *string
	Category  *string
	Content   *string
	AISummary *string
	Tags      []string
}

func (l *NoteLogic) UpdateNote(id string, args UpdateNoteArgs) (*types.Note, error) {
	if args.Title != nil && strings.TrimSpace(*args.Title) == "" {
		return nil, errors.New("NoteLogic.UpdateNote.title", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if _, err := l.GetNote(id); err != nil {
		return nil, errors.Trace("NoteLogic.UpdateNote", err)
	}

	update := types.UpdateNoteArgs{
		Title:     args.Title,
		Category:  args.Category,
		Content:   args.Content,
		AISummary: args.AISummary,
	}
	if args.Tags != nil {
		update.Tags = lo.Uniq(lo.Compact(args.Tags))
	}
	if err := l.core.Store().NoteStore().Update(l.ctx, l.GetUserInfo().User, id, update); err != nil {
		return nil, errors.New("NoteLogic.UpdateNote.NoteStore.Update", i18n.ERROR_INTERNAL, err)
	}
	return l.reload(id)
}

func (l *NoteLogic) reload(id string) (*types.Note, error) {
	note, err := l.GetNote(id)
	if err != nil {
		return nil, errors.Trace("NoteLogic.reload", err)
	}
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("NoteLogic.reload", err)
	}
	ws.Library.PutNote(l.ctx, *note)
	return note, nil
}

func (l *NoteLogic) DeleteNote(id string) error {
	ws, err := l.Workspace()
	if err != nil {
		return errors.Trace("NoteLogic.DeleteNote", err)
	}
	if err = l.core.Store().NoteStore().Delete(l.ctx, l.GetUserInfo().User, id); err != nil {
		return errors.New("NoteLogic.DeleteNote.NoteStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	ws.Library.RemoveNote(id)
	return nil
}

// GenerateFromDocument asks the model for a study note drafted from an extracted document.
func (l *NoteLogic) GenerateFromDocument(documentID string) (*types.Note, error) {
	doc, err := NewDocumentLogic(l.ctx, l.core).GetDocument(documentID)
	if err != nil {
		return nil, errors.Trace("NoteLogic.GenerateFromDocument", err)
	}
	if doc.Status != types.DOCUMENT_STATUS_READY || strings.TrimSpace(doc.Content) == "" {
		return nil, errors.New("NoteLogic.GenerateFromDocument.status", i18n.ERROR_DOCUMENT_EXTRACT, nil).Code(http.StatusConflict)
	}

	draft, err := l.core.Srv().AI().GenerateNote(l.ctx, doc.Title, utils.TruncateRunes(doc.Content, NOTE_SOURCE_LIMIT))
	if err != nil {
		key, code := workspace.ClassifyAIError(err)
		return nil, errors.New("NoteLogic.GenerateFromDocument.GenerateNote", key, err).Code(code)
	}

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = doc.Title
	}
	return l.create(types.Note{
		Title:      title,
		Category:   draft.Category,
		Content:    draft.Content,
		AISummary:  draft.Summary,
		Tags:       lo.Uniq(lo.Compact(draft.Tags)),
		DocumentID: doc.ID,
	})
}
