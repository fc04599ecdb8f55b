// Package config loads runtime configuration from an optional config
// file and DEBTBOOK_-prefixed environment variables, with working
// defaults for local development.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration tree.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Client   ClientConfig   `mapstructure:"client"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Currency string         `mapstructure:"currency"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ClientConfig holds values served to the frontend via GET /api/config.
type ClientConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

// Load reads configuration from config.yaml in dir (when present) and
// the environment. Environment variables override the file, e.g.
// DEBTBOOK_SERVER_PORT overrides server.port.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("DEBTBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit_rps", 50.0)
	v.SetDefault("server.rate_limit_burst", 100)
	v.SetDefault("database.path", "data/debtbook.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.ttl", time.Minute)
	v.SetDefault("client.poll_interval", 5*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_duration", 24*time.Hour)
	v.SetDefault("currency", "FCFA")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (DEBTBOOK_AUTH_JWT_SECRET) is required")
	}
	return &cfg, nil
}
