package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/quka-ai/studymate/app/core/srv"
	"github.com/quka-ai/studymate/app/store/sqlstore"
	"github.com/quka-ai/studymate/app/workspace"
	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores     func() *sqlstore.Provider
	redis      redis.UniversalClient
	cache      *Cache
	httpEngine *gin.Engine
	localizer  i18n.Localizer
	workspaces *workspace.Registry

	metrics *Metrics
	Plugins
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28,   //days
				Compress:   true, // disabled by default
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics("studymate", "core"),
		httpEngine: gin.New(),
		localizer:  i18n.NewLocalizer(i18n.LANGUAGES...),
	}

	// setup store
	setupSqlStore(core)

	if cfg.Redis.Enabled() {
		core.redis = SetupRedis(cfg.Redis)
		core.cache = &Cache{redis: core.redis, prefix: cfg.Redis.KeyPrefix}
	}

	core.srv = srv.SetupSrvs(
		// chat, extraction and audio drivers
		srv.ApplyAI(context.Background(), cfg.AI),
		// websocket fan-out
		srv.ApplyHub(core.redis),
	)

	core.workspaces = workspace.NewRegistry(core.newWorkspace)
	return core
}

func (s *Core) newWorkspace(userID string) *workspace.Workspace {
	stores := s.Store()
	ws := workspace.New(userID, workspace.Deps{
		Sessions:          stores.ChatSessionStore(),
		Messages:          stores.ChatMessageStore(),
		Documents:         stores.DocumentStore(),
		Notes:             stores.NoteStore(),
		AudioJobs:         stores.AudioJobStore(),
		AI:                NewMeasuredChatter(s.srv.AI(), s.metrics),
		Notifier:          s.srv.Hub(),
		Locker:            s,
		Translator:        s.localizer,
		ImageLoader:       &storageImageLoader{core: s},
		Lang:              i18n.DEFAULT_LANG,
		AudioPollInterval: time.Duration(s.cfg.Audio.PollInterval) * time.Second,
	})
	ws.Audio.OnTick = func(status types.AudioJobStatus) {
		s.metrics.AudioPollInc(string(status))
	}
	s.metrics.SetWorkspaces(s.workspaces.Len() + 1)
	return ws
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func setupSqlStore(core *Core) {
	core.stores = sqlstore.MustSetup(core.cfg.Postgres)
	// 执行数据库表初始化
	if err := core.stores().Install(); err != nil {
		panic(err)
	}
	fmt.Println("setupSqlStore done")
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

// Redis is nil when no redis address is configured.
func (s *Core) Redis() redis.UniversalClient {
	return s.redis
}

// Cache is nil when no redis address is configured.
func (s *Core) Cache() types.Cache {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

func (s *Core) Localizer() i18n.Localizer {
	return s.localizer
}

func (s *Core) Workspaces() *workspace.Registry {
	return s.workspaces
}

// Workspace returns the initialized workspace of userID.
func (s *Core) Workspace(ctx context.Context, userID string) (*workspace.Workspace, error) {
	ws, err := s.workspaces.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.metrics.SetWorkspaces(s.workspaces.Len())
	return ws, nil
}

// FileURL joins the static domain and the object path.
func (s *Core) FileURL(fullPath string) string {
	return strings.TrimSuffix(s.FileStorage().GetStaticDomain(), "/") + "/" + strings.TrimPrefix(fullPath, "/")
}

// ObjectPath is the inverse of FileURL.
func ObjectPath(staticDomain, fileURL string) string {
	if staticDomain != "" && strings.HasPrefix(fileURL, staticDomain) {
		return "/" + strings.TrimPrefix(strings.TrimPrefix(fileURL, staticDomain), "/")
	}
	if u, err := url.Parse(fileURL); err == nil && u.Host != "" {
		return u.Path
	}
	return fileURL
}

type storageImageLoader struct {
	core *Core
}

func (l *storageImageLoader) LoadImage(ctx context.Context, fileURL string) (*ai.InlineData, error) {
	storage := l.core.FileStorage()
	res, err := storage.DownloadFile(ctx, ObjectPath(storage.GetStaticDomain(), fileURL))
	if err != nil {
		return nil, err
	}
	return &ai.InlineData{
		MimeType: utils.CleanContentType(res.FileType),
		Data:     res.File,
	}, nil
}
