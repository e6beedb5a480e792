package server

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearRelayEnv unsets every config variable, restoring originals on cleanup
// via t.Setenv.
func clearRelayEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "ALLOWED_ORIGINS", "MAX_MESSAGE_SIZE",
		"RATE_LIMIT_BURST", "RATE_LIMIT_REFILL_INTERVAL",
		"CENSORED_WORDS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func Test_Config_Defaults(t *testing.T) {
	req := require.New(t)
	clearRelayEnv(t)

	cfg, err := NewConfigFromEnv()
	req.NoError(err)
	req.Equal(":8080", cfg.Port)
	req.Equal([]string{"http://localhost:8080"}, cfg.Origins())
	req.Equal(int64(512), cfg.MaxMessageSize)
	req.Equal(5, cfg.RateLimitBurst)
	req.Equal(time.Second, cfg.RateLimitRefill)
	req.Empty(cfg.Words())
	req.Equal(slog.LevelInfo, cfg.SlogLevel())
}

func Test_Config_Reads_Environment(t *testing.T) {
	req := require.New(t)
	clearRelayEnv(t)
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example.com, https://admin.example.com")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("CENSORED_WORDS", "bad, worse ,worst")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := NewConfigFromEnv()
	req.NoError(err)
	req.Equal(":9090", cfg.Port)
	req.Equal([]string{"https://chat.example.com", "https://admin.example.com"}, cfg.Origins())
	req.Equal(int64(1024), cfg.MaxMessageSize)
	req.Equal(10, cfg.RateLimitBurst)
	req.Equal(2*time.Second, cfg.RateLimitRefill)
	req.Equal([]string{"bad", "worse", "worst"}, cfg.Words())
	req.Equal(slog.LevelDebug, cfg.SlogLevel())
}

func Test_Config_Rejects_Invalid_Values(t *testing.T) {
	req := require.New(t)
	clearRelayEnv(t)
	t.Setenv("LOG_LEVEL", "LOUD")

	_, err := NewConfigFromEnv()
	req.Error(err)
}

func Test_Config_Rejects_NonPositive_Limits(t *testing.T) {
	req := require.New(t)
	clearRelayEnv(t)
	t.Setenv("MAX_MESSAGE_SIZE", "0")

	_, err := NewConfigFromEnv()
	req.Error(err)
}
