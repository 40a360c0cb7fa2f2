package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/quka-ai/studymate/app/core"
	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Websocket 推送会话、消息、文档与录音任务事件，客户端只读
func Websocket(core *core.Core) func(c *gin.Context) {
	return func(c *gin.Context) {
		tokenClaim, _ := v1.InjectTokenClaim(c)
		if tokenClaim.User == "" {
			response.APIError(c, errors.New("api.Websocket", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 失败时已经写回了 http 错误
			slog.Error("Websocket Upgrade err", slog.String("error", err.Error()))
			c.Abort()
			return
		}

		// 预热工作区，确保连接建立后的事件能正常推送
		if _, err = core.Workspace(c, tokenClaim.User); err != nil {
			slog.Error("failed to init workspace for websocket", slog.String("user", tokenClaim.User), slog.String("error", err.Error()))
		}
		core.Srv().Hub().Serve(tokenClaim.User, ws)
	}
}
