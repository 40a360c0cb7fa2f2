package core

import (
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/quka-ai/studymate/app/core/srv"
)

const ENV_PREFIX = "STUDYMATE_"

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	conf.SetConfigBytes(raw)

	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}
	conf.setDefault()

	return *conf
}

func (c CoreConfig) LoadCustomConfig(cfg any) error {
	if len(c.bytes) == 0 {
		return nil
	}
	if err := toml.Unmarshal(c.bytes, cfg); err != nil {
		return err
	}
	return nil
}

type CustomConfig[T any] struct {
	CustomConfig T `toml:"custom_config"`
}

func NewCustomConfigPayload[T any]() CustomConfig[T] {
	return CustomConfig[T]{}
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	if err := c.FromENV(); err != nil {
		panic(err)
	}
	return c
}

type CoreConfig struct {
	Addr          string              `toml:"addr" env:"API_SERVICE_ADDRESS" envDefault:":33033"`
	Log           Log                 `toml:"log" envPrefix:"LOG_"`
	Postgres      PGConfig            `toml:"postgres" envPrefix:"POSTGRESQL_"`
	Redis         RedisConfig         `toml:"redis" envPrefix:"REDIS_"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage" envPrefix:"OBJECT_STORAGE_"`

	AI srv.AIConfig `toml:"ai" envPrefix:"AI_"`

	Security Security    `toml:"security" envPrefix:"SECURITY_"`
	Audio    AudioConfig `toml:"audio" envPrefix:"AUDIO_"`

	bytes []byte `toml:"-"`
}

type ObjectStorageDriver struct {
	StaticDomain string   `toml:"static_domain" env:"STATIC_DOMAIN"`
	Driver       string   `toml:"driver" env:"DRIVER"`
	S3           S3Config `toml:"s3" envPrefix:"S3_"`
}

type S3Config struct {
	Bucket       string `toml:"bucket" env:"BUCKET"`
	Region       string `toml:"region" env:"REGION"`
	Endpoint     string `toml:"endpoint" env:"ENDPOINT"`
	AccessKey    string `toml:"access_key" env:"ACCESS_KEY"`
	SecretKey    string `toml:"secret_key" env:"SECRET_KEY"`
	UsePathStyle bool   `toml:"use_path_style" env:"USE_PATH_STYLE"`
}

func (c *CoreConfig) SetConfigBytes(raw []byte) {
	c.bytes = raw
}

type Security struct {
	JWTSecret string `toml:"jwt_secret" env:"JWT_SECRET"`
	// TokenExpire 登录 token 有效期(小时)
	TokenExpire int `toml:"token_expire" env:"TOKEN_EXPIRE" envDefault:"168"`
}

type AudioConfig struct {
	// PollInterval 客户端轮询间隔(秒)
	PollInterval int `toml:"poll_interval" env:"POLL_INTERVAL" envDefault:"5"`
	// StaleAfter processing 状态超过该时长(分钟)视为失败
	StaleAfter    int `toml:"stale_after" env:"STALE_AFTER" envDefault:"30"`
	MaxUploadSize int `toml:"max_upload_size" env:"MAX_UPLOAD_SIZE" envDefault:"26214400"`
}

// FromENV reads every STUDYMATE_ prefixed variable, e.g. STUDYMATE_POSTGRESQL_DSN.
func (c *CoreConfig) FromENV() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: ENV_PREFIX}); err != nil {
		return err
	}
	c.setDefault()
	return nil
}

func (c *CoreConfig) setDefault() {
	if c.Addr == "" {
		c.Addr = ":33033"
	}
	if c.Audio.PollInterval <= 0 {
		c.Audio.PollInterval = 5
	}
	if c.Audio.StaleAfter <= 0 {
		c.Audio.StaleAfter = 30
	}
	if c.Audio.MaxUploadSize <= 0 {
		c.Audio.MaxUploadSize = 25 << 20
	}
	if c.Security.TokenExpire <= 0 {
		c.Security.TokenExpire = 168
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.RetryDelay <= 0 {
		c.AI.RetryDelay = 1000
	}
}

type PGConfig struct {
	DSN string `toml:"dsn" env:"DSN"`
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	// 单机模式配置
	Addr     string `toml:"addr" env:"ADDR"`
	Password string `toml:"password" env:"PASSWORD"`
	DB       int    `toml:"db" env:"DB"`

	// 集群模式配置
	Cluster      bool     `toml:"cluster" env:"CLUSTER"`
	ClusterAddrs []string `toml:"cluster_addrs" env:"CLUSTER_ADDRS" envSeparator:","`

	// 连接池配置
	PoolSize     int `toml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int `toml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	DialTimeout  int `toml:"dial_timeout" env:"DIAL_TIMEOUT"`

	KeyPrefix string `toml:"key_prefix" env:"KEY_PREFIX"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != "" || (r.Cluster && len(r.ClusterAddrs) > 0)
}

type Log struct {
	Level string `toml:"level" env:"LEVEL"`
	Path  string `toml:"path" env:"PATH"`
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
