package v1

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/samber/lo"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/app/workspace"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
)

type ChatMessageLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewChatMessageLogic(ctx context.Context, core *core.Core) *ChatMessageLogic {
	return &ChatMessageLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

func (l *ChatMessageLogic) activate(ws *workspace.Workspace, sessionID string) error {
	if ws.Sessions.Active() == sessionID {
		return nil
	}
	return ws.Sessions.Select(l.ctx, sessionID)
}

// ListMessages returns the buffered window of sessionID, activating it first when needed.
func (l *ChatMessageLogic) ListMessages(sessionID string) (workspace.MessagesSnapshot, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.MessagesSnapshot{}, errors.Trace("ChatMessageLogic.ListMessages", err)
	}
	if err = l.activate(ws, sessionID); err != nil {
		return workspace.MessagesSnapshot{}, errors.Trace("ChatMessageLogic.ListMessages", err)
	}
	return ws.Messages.View(), nil
}

type LoadOlderResult struct {
	workspace.MessagesSnapshot
	Loaded int `json:"loaded"`
}

func (l *ChatMessageLogic) LoadOlderMessages(sessionID string) (LoadOlderResult, error) {
	ws, err := l.Workspace()
	if err != nil {
		return LoadOlderResult{}, errors.Trace("ChatMessageLogic.LoadOlderMessages", err)
	}
	if ws.Sessions.Active() != sessionID {
		return LoadOlderResult{}, errors.New("ChatMessageLogic.LoadOlderMessages.inactive", i18n.ERROR_CHAT_NO_SESSION, nil).Code(http.StatusConflict)
	}
	n, err := ws.Messages.LoadOlder(l.ctx)
	if err != nil {
		return LoadOlderResult{}, errors.Trace("ChatMessageLogic.LoadOlderMessages", err)
	}
	return LoadOlderResult{MessagesSnapshot: ws.Messages.View(), Loaded: n}, nil
}

func (l *ChatMessageLogic) DeleteMessage(id string) error {
	ws, err := l.Workspace()
	if err != nil {
		return errors.Trace("ChatMessageLogic.DeleteMessage", err)
	}
	if err = ws.Messages.Delete(l.ctx, id); err != nil {
		return errors.Trace("ChatMessageLogic.DeleteMessage", err)
	}
	return nil
}

type MessagePage struct {
	List     []types.ChatMessage `json:"list"`
	HasOlder bool                `json:"has_older"`
}

// ListMessagesBefore pages a session's history without touching the workspace buffer,
// returning up to one page of messages older than before in chronological order.
func (l *ChatMessageLogic) ListMessagesBefore(sessionID string, before int64) (MessagePage, error) {
	userID := l.GetUserInfo().User
	session, err := l.core.Store().ChatSessionStore().Get(l.ctx, userID, sessionID)
	if err != nil && err != sql.ErrNoRows {
		return MessagePage{}, errors.New("ChatMessageLogic.ListMessagesBefore.ChatSessionStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if session == nil {
		return MessagePage{}, errors.New("ChatMessageLogic.ListMessagesBefore.ChatSessionStore.Get.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	list, err := l.core.Store().ChatMessageStore().ListLatest(l.ctx, types.ListMessageOptions{
		SessionID: sessionID,
		UserID:    userID,
		Before:    before,
	}, workspace.MESSAGE_PAGE_SIZE)
	if err != nil {
		return MessagePage{}, errors.New("ChatMessageLogic.ListMessagesBefore.ChatMessageStore.ListLatest", i18n.ERROR_INTERNAL, err)
	}
	if list == nil {
		list = []types.ChatMessage{}
	}
	return MessagePage{
		List:     lo.Reverse(list),
		HasOlder: uint64(len(list)) == workspace.MESSAGE_PAGE_SIZE,
	}, nil
}
