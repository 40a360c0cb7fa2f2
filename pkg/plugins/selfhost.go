package plugins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/pkg/security"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

func init() {
	RegisterProvider("selfhost", newSelfHostMode())
}

type SelfHostCustomConfig struct {
	// DefaultUser 启动时为该用户签发一个 token 并打印
	DefaultUser string `toml:"default_user"`
	// LocalStorageRoot local 存储驱动的根目录
	LocalStorageRoot string `toml:"local_storage_root"`
}

type locker interface {
	TryLock(ctx context.Context, key string) (bool, error)
}

var _ core.Plugins = (*SelfHostPlugin)(nil)

func newSelfHostMode() *SelfHostPlugin {
	return &SelfHostPlugin{
		Appid:    types.DEFAULT_APPID,
		lock:     NewSingleLock(),
		limiters: make(map[string]*rate.Limiter),
	}
}

type SelfHostPlugin struct {
	core    *core.Core
	Appid   string
	lock    locker
	storage core.FileStorage

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	customConfig SelfHostCustomConfig
}

func (s *SelfHostPlugin) Name() string {
	return "selfhost"
}

func (s *SelfHostPlugin) DefaultAppid() string {
	return s.Appid
}

func (s *SelfHostPlugin) Install(c *core.Core) error {
	s.core = c
	fmt.Println("Start initialize.")
	utils.SetupIDWorker(1)

	customConfig := core.NewCustomConfigPayload[SelfHostCustomConfig]()
	if err := s.core.Cfg().LoadCustomConfig(&customConfig); err != nil {
		return fmt.Errorf("Failed to install custom config, %w", err)
	}
	s.customConfig = customConfig.CustomConfig

	if cache := c.Cache(); cache != nil {
		s.lock = NewCacheLock(cache, CACHE_LOCK_TTL)
	}

	if s.customConfig.DefaultUser == "" {
		return nil
	}

	secret := c.Cfg().Security.JWTSecret
	if secret == "" {
		return fmt.Errorf("security.jwt_secret is required to issue the default user token")
	}
	expire := time.Now().Add(time.Duration(c.Cfg().Security.TokenExpire) * time.Hour).Unix()
	token, err := security.GenerateJWT(security.NewTokenClaims(s.Appid, s.customConfig.DefaultUser, expire), []byte(secret))
	if err != nil {
		return err
	}

	fmt.Println("Appid:", s.Appid)
	fmt.Println("User:", s.customConfig.DefaultUser)
	fmt.Println("Authorization token:", token)
	return nil
}

func (s *SelfHostPlugin) TryLock(ctx context.Context, key string) (bool, error) {
	return s.lock.TryLock(ctx, key)
}

// UseLimiter 默认每分钟允许 60 次
func (s *SelfHostPlugin) UseLimiter(c *gin.Context, key string, method string, opts ...core.LimitOption) core.Limiter {
	cfg := &core.LimitConfig{
		Limit: 60,
		Every: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	l, exist := s.limiters[key]
	if !exist {
		limit := rate.Every(cfg.Every / time.Duration(cfg.Limit))
		l = rate.NewLimiter(limit, cfg.Limit*2)
		s.limiters[key] = l
	}

	return l
}

func (s *SelfHostPlugin) FileStorage() core.FileStorage {
	if s.storage != nil {
		return s.storage
	}

	s.storage = SetupObjectStorage(s.core.Cfg().ObjectStorage)
	if local, ok := s.storage.(*LocalFileStorage); ok {
		local.Root = s.customConfig.LocalStorageRoot
	}

	return s.storage
}
