package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://finnhub.io/api/v1", cfg.Finnhub.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Finnhub.Timeout)
	assert.Equal(t, 3, cfg.Finnhub.MaxRetries)
	assert.Equal(t, 0.75, cfg.Finnhub.BackoffFactor)
	assert.Equal(t, 10, cfg.Finnhub.QuoteTTL)
	assert.Equal(t, 21600, cfg.Finnhub.MetricsTTL)
	assert.Equal(t, 4, cfg.Finnhub.MaxConcurrency)
	assert.Equal(t, 60, cfg.Finnhub.PerMinuteLimit)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9090
finnhub:
  api_key: sk_test
  quote_ttl_seconds: -1
  per_minute_limit: 30
redis:
  enabled: true
  addr: localhost:6379
watchlist: [AAPL, MSFT]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk_test", cfg.Finnhub.APIKey)
	assert.Equal(t, -1, cfg.Finnhub.QuoteTTL, "negative disables quote caching")
	assert.Equal(t, 30, cfg.Finnhub.PerMinuteLimit)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watchlist)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("FINNHUB_API_KEY", "sk_env")
	t.Setenv("FINNHUB_PER_MINUTE_LIMIT", "0")
	t.Setenv("FINNHUB_QUOTE_TTL_SECONDS", "0")
	t.Setenv("SYMBOLS", "NVDA,AMD")

	cfg, err := LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "sk_env", cfg.Finnhub.APIKey)
	assert.Equal(t, 0, cfg.Finnhub.PerMinuteLimit, "env can disable the limiter")
	assert.Equal(t, 0, cfg.Finnhub.QuoteTTL, "env can disable quote caching")
	assert.Equal(t, []string{"NVDA", "AMD"}, cfg.Watchlist)
}

func TestValidateRejectsMissingEnvironment(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRequiresRedisAddr(t *testing.T) {
	path := writeConfig(t, "environment: test\nredis:\n  enabled: true\n")
	_, err := Load(path)
	require.Error(t, err)
}
