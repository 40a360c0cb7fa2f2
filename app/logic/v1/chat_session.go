package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/app/workspace"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
)

type ChatSessionLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewChatSessionLogic(ctx context.Context, core *core.Core) *ChatSessionLogic {
	return &ChatSessionLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

func (l *ChatSessionLogic) ListSessions() (workspace.SessionsSnapshot, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.SessionsSnapshot{}, errors.Trace("ChatSessionLogic.ListSessions", err)
	}
	return ws.Sessions.Snapshot(), nil
}

func (l *ChatSessionLogic) LoadMoreSessions() (workspace.SessionsSnapshot, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.SessionsSnapshot{}, errors.Trace("ChatSessionLogic.LoadMoreSessions", err)
	}
	if err = ws.Sessions.LoadMore(l.ctx); err != nil {
		return workspace.SessionsSnapshot{}, errors.Trace("ChatSessionLogic.LoadMoreSessions", err)
	}
	return ws.Sessions.Snapshot(), nil
}

func (l *ChatSessionLogic) CreateChatSession(documentIDs []string) (*types.ChatSession, error) {
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("ChatSessionLogic.CreateChatSession", err)
	}
	session, err := ws.Sessions.Create(l.ctx, documentIDs)
	if err != nil {
		return nil, errors.Trace("ChatSessionLogic.CreateChatSession", err)
	}
	return session, nil
}

func (l *ChatSessionLogic) RenameChatSession(sessionID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("ChatSessionLogic.RenameChatSession.title", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	ws, err := l.Workspace()
	if err != nil {
		return errors.Trace("ChatSessionLogic.RenameChatSession", err)
	}
	if err = ws.Sessions.Rename(l.ctx, sessionID, title); err != nil {
		return errors.Trace("ChatSessionLogic.RenameChatSession", err)
	}
	return nil
}

func (l *ChatSessionLogic) DeleteChatSession(sessionID string) error {
	ws, err := l.Workspace()
	if err != nil {
		return errors.Trace("ChatSessionLogic.DeleteChatSession", err)
	}
	if err = ws.Sessions.Delete(l.ctx, sessionID); err != nil {
		return errors.Trace("ChatSessionLogic.DeleteChatSession", err)
	}
	return nil
}

// SelectChatSession activates sessionID, an empty id clears the selection.
func (l *ChatSessionLogic) SelectChatSession(sessionID string) (workspace.MessagesSnapshot, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.MessagesSnapshot{}, errors.Trace("ChatSessionLogic.SelectChatSession", err)
	}
	if err = ws.Sessions.Select(l.ctx, sessionID); err != nil {
		return workspace.MessagesSnapshot{}, errors.Trace("ChatSessionLogic.SelectChatSession", err)
	}
	return ws.Messages.View(), nil
}
