package v1

import (
	"context"
	"net/http"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/app/workspace"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

type SendMessageArgs struct {
	Text        string
	DocumentIDs []string
	NoteIDs     []string
	Image       *UploadFile
}

type SendMessageResult struct {
	SessionID string             `json:"session_id"`
	Reply     *types.ChatMessage `json:"reply"`
}

// SendMessage stores the optional image, then runs the chat turn in the active session
// (a new session is created when none is active).
func (l *ChatLogic) SendMessage(args SendMessageArgs) (SendMessageResult, error) {
	ws, err := l.Workspace()
	if err != nil {
		return SendMessageResult{}, errors.Trace("ChatLogic.SendMessage", err)
	}

	req := workspace.SubmitRequest{
		Text:        args.Text,
		DocumentIDs: args.DocumentIDs,
		NoteIDs:     args.NoteIDs,
	}
	if args.Image != nil {
		if !utils.IsImageType(args.Image.MimeType()) {
			return SendMessageResult{}, errors.New("ChatLogic.SendMessage.image", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
		}
		stored, err := saveUserFile(l.ctx, l.core, l.GetUserInfo().User, OBJECT_KIND_IMAGE, *args.Image, MAX_IMAGE_SIZE)
		if err != nil {
			return SendMessageResult{}, errors.Trace("ChatLogic.SendMessage", err)
		}
		req.Image = &workspace.Image{
			URL:      stored.URL,
			MimeType: stored.MimeType,
			Data:     args.Image.Data,
		}
	}

	reply, err := ws.Chat.Submit(l.ctx, req)
	if err != nil {
		return SendMessageResult{SessionID: ws.Sessions.Active(), Reply: reply}, errors.Trace("ChatLogic.SendMessage", err)
	}
	return SendMessageResult{SessionID: ws.Sessions.Active(), Reply: reply}, nil
}

func (l *ChatLogic) Regenerate(messageID string) (*types.ChatMessage, error) {
	ws, err := l.Workspace()
	if err != nil {
		return nil, errors.Trace("ChatLogic.Regenerate", err)
	}
	msg, err := ws.Chat.Regenerate(l.ctx, messageID)
	if err != nil {
		return msg, errors.Trace("ChatLogic.Regenerate", err)
	}
	return msg, nil
}

func (l *ChatLogic) Status() (workspace.ChatStatus, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.ChatStatus{}, errors.Trace("ChatLogic.Status", err)
	}
	return ws.Chat.Status(), nil
}
