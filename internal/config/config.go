package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Name        string `mapstructure:"name"`
	Port        string `mapstructure:"port"`
	Development bool   `mapstructure:"development"`
}

type ServerCfg struct {
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Enabled reports whether event publishing is configured at all.
func (k KafkaCfg) Enabled() bool { return len(k.Brokers) > 0 }

type JWTCfg struct {
	SigningMethod string `mapstructure:"signing_method"`
	Secret        string `mapstructure:"secret"`
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type S3Cfg struct {
	Region     string `mapstructure:"region"`
	Bucket     string `mapstructure:"bucket"`
	PublicRead bool   `mapstructure:"public_read"`
}

type UploadCfg struct {
	Backend   string `mapstructure:"backend"` // "local" or "s3"
	Dir       string `mapstructure:"dir"`
	BaseURL   string `mapstructure:"base_url"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	S3        S3Cfg  `mapstructure:"s3"`
}

func (u UploadCfg) MaxBytes() int64 { return int64(u.MaxSizeMB) << 20 }

type ProfanityCfg struct {
	ExtraWords []string `mapstructure:"extra_words"`
}

type Config struct {
	App       AppCfg       `mapstructure:"app"`
	Server    ServerCfg    `mapstructure:"server"`
	Mongo     MongoCfg     `mapstructure:"mongo"`
	Redis     RedisCfg     `mapstructure:"redis"`
	Kafka     KafkaCfg     `mapstructure:"kafka"`
	JWT       JWTCfg       `mapstructure:"jwt"`
	Upload    UploadCfg    `mapstructure:"upload"`
	Profanity ProfanityCfg `mapstructure:"profanity"`

	// Derived
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads the config file at path and applies APP_* env overrides
// (APP_MONGO_URI, APP_APP_PORT, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "chat-service")
	v.SetDefault("app.port", "8085")
	v.SetDefault("mongo.database", "campushub")
	v.SetDefault("redis.prefix", "chat")
	v.SetDefault("kafka.topic", "chat.events")
	v.SetDefault("jwt.signing_method", "HS256")
	v.SetDefault("upload.backend", "local")
	v.SetDefault("upload.dir", "./uploads/chat")
	v.SetDefault("upload.base_url", "/uploads/chat")
	v.SetDefault("upload.max_size_mb", 10)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	return &cfg, nil
}
