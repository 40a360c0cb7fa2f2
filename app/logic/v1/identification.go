package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/app/workspace"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/security"
)

type _userInfo struct {
	ctx  context.Context
	core *core.Core
	u    *security.TokenClaims
}

func (u *_userInfo) GetUserInfo() security.TokenClaims {
	return *u.u
}

// Workspace returns the caller's workspace, 401 when the request carries no user.
func (u *_userInfo) Workspace() (*workspace.Workspace, error) {
	if u.u.User == "" {
		return nil, errors.New("UserInfo.Workspace", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}
	ws, err := u.core.Workspace(u.ctx, u.u.User)
	if err != nil {
		return nil, errors.Trace("UserInfo.Workspace", err)
	}
	return ws, nil
}

func SetupUserInfo(ctx context.Context, core *core.Core) UserInfo {
	userInfo, ok := InjectTokenClaim(ctx)
	if !ok {
		slog.Error("Not found user in context", slog.String("component", "logic.v1.setupUserInfo"))
		userInfo = security.TokenClaims{}
	}
	return &_userInfo{
		ctx:  ctx,
		u:    &userInfo,
		core: core,
	}
}

type UserInfo interface {
	GetUserInfo() security.TokenClaims
	Workspace() (*workspace.Workspace, error)
}
