package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quka-ai/studymate/app/core"
	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
	"github.com/quka-ai/studymate/cmd/service/handler"
	"github.com/quka-ai/studymate/cmd/service/middleware"
	"github.com/quka-ai/studymate/pkg/metrics"
	"github.com/quka-ai/studymate/pkg/safe"
)

func serve(ctx context.Context, core *core.Core) error {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	safe.Go("socket.Hub.Run", func() {
		core.Srv().Hub().Run(ctx)
	})

	server := &http.Server{
		Addr:    core.Cfg().Addr,
		Handler: core.HttpEngine(),
	}
	safe.Go("http.Server.Shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown http server", slog.String("error", err.Error()))
		}
	})

	slog.Info("http service started", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func GetUserLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			token, _ := v1.InjectTokenClaim(c)
			return key + ":" + token.User
		}, opts...)
	}
}

func GetAILimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, "ai", func(c *gin.Context) string {
			return key
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	userLimit := GetUserLimitBuilder(s.Core)
	aiLimit := GetAILimitBuilder(s.Core)

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(gin.Recovery())
	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.Metrics(s.Core))
	s.Engine.Use(middleware.SetAppid(s.Core))
	apiV1 := s.Engine.Group("/api/v1")
	{
		apiV1.GET("/mode", s.Mode)
		apiV1.GET("/connect", middleware.AuthorizationFromQuery(s.Core), handler.Websocket(s.Core))

		authed := apiV1.Group("")
		authed.Use(middleware.Authorization(s.Core), middleware.AcceptLanguage())
		authed.GET("/ai/status", s.AIStatus)
		authed.POST("/token/refresh", userLimit("token", core.WithLimit(5), core.WithRange(time.Minute)), s.RefreshToken)

		session := authed.Group("/chat/session")
		{
			session.GET("/list", s.ListChatSessions)
			session.GET("/list/more", s.LoadMoreChatSessions)
			session.POST("", userLimit("create_session"), s.CreateChatSession)
			session.PUT("/:session/title", s.RenameChatSession)
			session.DELETE("/:session", s.DeleteChatSession)
			session.POST("/:session/select", s.SelectChatSession)
			session.GET("/:session/messages", s.ListChatMessages)
			session.GET("/:session/messages/older", s.LoadOlderChatMessages)
		}

		chat := authed.Group("/chat")
		{
			chat.GET("/status", s.ChatStatus)
			chat.POST("/message", userLimit("chat"), aiLimit("chat", core.WithLimit(60), core.WithRange(time.Minute)), s.SendMessage)
			chat.POST("/message/:message/regenerate", userLimit("chat"), aiLimit("chat", core.WithLimit(60), core.WithRange(time.Minute)), s.RegenerateMessage)
			chat.DELETE("/message/:message", s.DeleteChatMessage)
		}

		document := authed.Group("/document")
		{
			document.GET("/list", s.ListDocuments)
			document.POST("", userLimit("upload", core.WithLimit(10), core.WithRange(time.Minute)), s.UploadDocument)
			document.GET("/:document", s.GetDocument)
			document.POST("/:document/refresh", s.RefreshDocument)
			document.DELETE("/:document", s.DeleteDocument)
			document.POST("/:document/note", userLimit("generate_note", core.WithLimit(10), core.WithRange(time.Minute)), s.GenerateNote)
		}

		note := authed.Group("/note")
		{
			note.GET("/list", s.ListNotes)
			note.POST("", s.CreateNote)
			note.GET("/:note", s.GetNote)
			note.PUT("/:note", s.UpdateNote)
			note.DELETE("/:note", s.DeleteNote)
			note.POST("/:note/audio", userLimit("audio", core.WithLimit(5), core.WithRange(time.Minute)), s.SubmitAudio)
		}

		audio := authed.Group("/audio")
		{
			audio.GET("/status", s.AudioStatus)
			audio.POST("/job/:job/resume", s.ResumeAudio)
			audio.POST("/stop", s.StopAudio)
		}
	}
}
