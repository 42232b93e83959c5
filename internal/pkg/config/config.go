package config

import (
	"errors"
	"log"
	"os"

	"community_forum/pkg/logger"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	App       AppConfig       `mapstructure:"app"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	OSS       OSSConfig       `mapstructure:"oss"`
	Push      PushConfig      `mapstructure:"push"`
	Trigger   TriggerConfig   `mapstructure:"trigger"`
	Fanout    FanoutConfig    `mapstructure:"fanout"`
	Community CommunityConfig `mapstructure:"community"`
	Logger    logger.Config   `mapstructure:"logger"`
}

type ServerConfig struct {
	Port      string  `mapstructure:"port"`
	Mode      string  `mapstructure:"mode"`
	RateLimit float64 `mapstructure:"rate_limit"` // 每 IP 每秒请求数
	RateBurst int     `mapstructure:"rate_burst"`
	// AllowOrigins 跨域白名单，为空表示放行所有来源
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int64  `mapstructure:"expire"` // 小时
}

// StoreConfig 文档库配置，driver 取值 memory / firestore
type StoreConfig struct {
	Driver          string `mapstructure:"driver"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	DeleteBatchSize int    `mapstructure:"delete_batch_size"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
}

type PushConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	AppKey          int64  `mapstructure:"app_key"`
	RegionID        string `mapstructure:"region_id"` // e.g., "cn-hangzhou"
}

// TriggerConfig 触发器投递配置
type TriggerConfig struct {
	Workers   int   `mapstructure:"workers"`
	QueueSize int   `mapstructure:"queue_size"`
	MaxRetry  int   `mapstructure:"max_retry"`
	DedupeTTL int64 `mapstructure:"dedupe_ttl"` // 秒
	// DedupeSize 未配置 Redis 时进程内去重最多保留的键数
	DedupeSize int `mapstructure:"dedupe_size"`
}

type FanoutConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type CommunityConfig struct {
	InviteCodeLength int `mapstructure:"invite_code_length"`
}

var GlobalConfig Config

// Validate 验证配置
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}

	switch c.Store.Driver {
	case "memory":
	case "firestore":
		if c.Store.ProjectID == "" {
			return errors.New("store.project_id is required for the firestore driver")
		}
	default:
		return errors.New("store.driver must be memory or firestore")
	}

	if c.Community.InviteCodeLength <= 0 {
		return errors.New("community.invite_code_length must be positive")
	}
	if c.Trigger.Workers <= 0 || c.Trigger.QueueSize <= 0 {
		return errors.New("trigger.workers and trigger.queue_size must be positive")
	}
	return nil
}

// SetDefaults 注册默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.rate_burst", 200)
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.debug", true)
	v.SetDefault("jwt.expire", 24)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.delete_batch_size", 100)
	v.SetDefault("redis.db", 0)
	v.SetDefault("trigger.workers", 4)
	v.SetDefault("trigger.queue_size", 1024)
	v.SetDefault("trigger.max_retry", 2)
	v.SetDefault("trigger.dedupe_ttl", 86400)
	v.SetDefault("trigger.dedupe_size", 100000)
	v.SetDefault("fanout.concurrency", 8)
	v.SetDefault("community.invite_code_length", 5)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.max_size", 16)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.console", true)
}

// LoadConfig 加载配置
func LoadConfig() {
	// 获取环境变量，默认为dev
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	configName := "config"
	if env != "dev" {
		configName = "config." + env
	}

	v := viper.GetViper()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults or env vars: %v", err)
	}

	v.AutomaticEnv()

	if err := v.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// 手动覆盖，以防 viper 无法正确解析复杂结构或环境变量
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		GlobalConfig.Redis.Addr = redisAddr
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		GlobalConfig.JWT.Secret = jwtSecret
	}
	if project := os.Getenv("FIRESTORE_PROJECT_ID"); project != "" {
		GlobalConfig.Store.ProjectID = project
	}
	GlobalConfig.Logger.Debug = GlobalConfig.App.Debug

	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Configuration loaded and validated successfully. Environment: %s", GlobalConfig.App.Env)
}
