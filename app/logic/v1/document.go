package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/extract"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

const DOCUMENT_EXTRACT_TIMEOUT = 3 * time.Minute

type DocumentLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewDocumentLogic(ctx context.Context, core *core.Core) *DocumentLogic {
	return &DocumentLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

func (l *DocumentLogic) ListDocuments() ([]types.Document, error) {
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("DocumentLogic.ListDocuments", err)
	}
	return ws.Library.Documents(), nil
}

func (l *DocumentLogic) GetDocument(id string) (*types.Document, error) {
	doc, err := l.core.Store().DocumentStore().Get(l.ctx, l.GetUserInfo().User, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("DocumentLogic.GetDocument.DocumentStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if doc == nil {
		return nil, errors.New("DocumentLogic.GetDocument.DocumentStore.Get.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return doc, nil
}

// UploadDocument stores the file, extracts its text and analyses its structure.
// The row is created before extraction so a failed extraction stays visible as failed.
func (l *DocumentLogic) UploadDocument(title string, file UploadFile) (*types.Document, error) {
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("DocumentLogic.UploadDocument", err)
	}

	userID := l.GetUserInfo().User
	stored, err := saveUserFile(l.ctx, l.core, userID, OBJECT_KIND_DOCUMENT, file, MAX_DOCUMENT_SIZE)
	if err != nil {
		return nil, errors.Trace("DocumentLogic.UploadDocument", err)
	}

	if title = strings.TrimSpace(title); title == "" {
		title = file.FileName
	}
	now := time.Now().Unix()
	doc := types.Document{
		ID:        utils.GenSpecIDStr(),
		UserID:    userID,
		Title:     title,
		FileName:  file.FileName,
		FileType:  stored.MimeType,
		FileURL:   stored.URL,
		Size:      int64(len(file.Data)),
		Status:    types.DOCUMENT_STATUS_EXTRACTING,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = l.core.Store().DocumentStore().Create(l.ctx, doc); err != nil {
		return nil, errors.New("DocumentLogic.UploadDocument.DocumentStore.Create", i18n.ERROR_INTERNAL, err)
	}
	ws.Library.PutDocument(l.ctx, doc)

	ctx, cancel := context.WithTimeout(l.ctx, DOCUMENT_EXTRACT_TIMEOUT)
	defer cancel()

	content, err := l.core.Srv().Extractor().Extract(ctx, file.FileName, stored.MimeType, file.Data)
	if err != nil {
		l.markFailed(&doc)
		ws.Library.PutDocument(l.ctx, doc)
		if errors.Is(err, extract.ErrUnsupported) {
			return &doc, errors.New("DocumentLogic.UploadDocument.Extract", i18n.ERROR_DOCUMENT_UNSUPPORTED, err).Code(http.StatusUnsupportedMediaType)
		}
		return &doc, errors.New("DocumentLogic.UploadDocument.Extract", i18n.ERROR_DOCUMENT_EXTRACT, err).Code(http.StatusBadGateway)
	}

	structure, err := l.core.Srv().AI().AnalyzeStructure(ctx, doc.Title, content)
	if err != nil {
		// 结构分析失败不影响文档可用
		slog.Warn("failed to analyze document structure", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
	}

	doc.Content, doc.Structure, doc.Status = content, structure, types.DOCUMENT_STATUS_READY
	doc.UpdatedAt = time.Now().Unix()
	if err = l.core.Store().DocumentStore().UpdateContent(l.ctx, userID, doc.ID, content, structure, doc.Status); err != nil {
		return nil, errors.New("DocumentLogic.UploadDocument.DocumentStore.UpdateContent", i18n.ERROR_INTERNAL, err)
	}
	ws.Library.PutDocument(l.ctx, doc)
	return &doc, nil
}

func (l *DocumentLogic) markFailed(doc *types.Document) {
	doc.Status = types.DOCUMENT_STATUS_FAILED
	doc.UpdatedAt = time.Now().Unix()
	if err := l.core.Store().DocumentStore().UpdateContent(context.WithoutCancel(l.ctx), doc.UserID, doc.ID, "", "", doc.Status); err != nil {
		slog.Error("failed to mark document failed", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
	}
}

// RefreshDocument re-reads the stored row into the workspace library.
func (l *DocumentLogic) RefreshDocument(id string) (*types.Document, error) {
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("DocumentLogic.RefreshDocument", err)
	}
	doc, err := ws.Library.RefreshDocument(l.ctx, id)
	if err != nil {
		return nil, errors.Trace("DocumentLogic.RefreshDocument", err)
	}
	return doc, nil
}

func (l *DocumentLogic) DeleteDocument(id string) error {
	doc, err := l.GetDocument(id)
	if err != nil {
		return errors.Trace("DocumentLogic.DeleteDocument", err)
	}
	ws, err := l.Workspace()
	if err != nil {
		return errors.Trace("DocumentLogic.DeleteDocument", err)
	}

	if err = l.core.Store().DocumentStore().Delete(l.ctx, doc.UserID, doc.ID); err != nil {
		return errors.New("DocumentLogic.DeleteDocument.DocumentStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	if doc.FileURL != "" {
		storage := l.core.FileStorage()
		if err = storage.DeleteFile(l.ctx, core.ObjectPath(storage.GetStaticDomain(), doc.FileURL)); err != nil {
			slog.Warn("failed to delete document file", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
		}
	}
	ws.Library.RemoveDocument(doc.ID)
	return nil
}
