// Package server provides configuration helpers that define runtime
// defaults, validation, and rate-limiting parameters for the chat relay.
package server

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Config holds the relay's runtime settings, populated from the environment.
type Config struct {
	Port            string        `env:"SERVER_PORT,default=:8080" validate:"required"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=512" validate:"gt=0"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST,default=5" validate:"gt=0"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s" validate:"gt=0"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// NewConfigFromEnv loads the configuration from environment variables,
// applying defaults for anything unset and validating the result.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Origins returns the parsed origin allow-list. A single "*" entry allows
// any origin.
func (c *Config) Origins() []string {
	return splitAndTrim(c.AllowedOrigins)
}

// Words returns the censored word list; empty when moderation is disabled.
func (c *Config) Words() []string {
	return splitAndTrim(c.CensoredWords)
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
