package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Dialect string `mapstructure:"dialect"`
	DSN     string `mapstructure:"dsn"`
}

type AWSConfig struct {
	Region   string `mapstructure:"region"`
	S3Bucket string `mapstructure:"s3_bucket"`
	// Endpoint points the uploader at an S3-compatible store such as MinIO.
	Endpoint string `mapstructure:"endpoint"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	ModeratorEmails []string      `mapstructure:"moderator_emails"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 25<<20)
	v.SetDefault("database.dialect", "sqlite3")
	v.SetDefault("database.dsn", "campustube.db")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	// Keys without a real default still need registering so that
	// CAMPUSTUBE_* variables reach Unmarshal when no file sets them.
	for _, key := range []string{
		"aws.s3_bucket",
		"aws.endpoint",
		"auth.jwt_secret",
		"auth.moderator_emails",
		"redis.addr",
		"redis.password",
		"redis.db",
		"nats.url",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads config.yaml from dir (cmd/config/ when empty), a .env file in the
// working directory if present, and CAMPUSTUBE_* environment overrides.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load()

	if dir == "" {
		dir = "cmd/config/"
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("campustube")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	if cfg.AWS.S3Bucket == "" {
		return nil, fmt.Errorf("aws.s3_bucket is required")
	}

	return &cfg, nil
}
