package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml or .env is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSecs)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Zero(t, cfg.API.RatePerSec)
	assert.Equal(t, 3000, cfg.Poll.IntervalMs)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval())
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1000, cfg.Retry.InitialBackoffMs)
	assert.Equal(t, 30000, cfg.Retry.MaxBackoffMs)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate("client"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
api:
  base_url: https://research.internal
  rate_per_sec: 2.5
log:
  level: debug
  format: console
poll:
  interval_ms: 500
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://research.internal", cfg.API.BaseURL)
	assert.InDelta(t, 2.5, cfg.API.RatePerSec, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 500, cfg.Poll.IntervalMs)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
api:
  base_url: https://from-file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PROFILE_REVIEW_API_BASE_URL", "https://from-env")
	t.Setenv("PROFILE_REVIEW_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "https://from-env", cfg.API.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("PROFILE_REVIEW_SERVER_PORT", "3000")
	t.Setenv("PROFILE_REVIEW_RETRY_MAX_ATTEMPTS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestLoadUnprefixedBaseURL(t *testing.T) {
	chdirTemp(t)

	t.Setenv("API_BASE_URL", "http://jobs:8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://jobs:8080", cfg.API.BaseURL)
}

func TestLoadDotenv(t *testing.T) {
	dir := chdirTemp(t)

	const key = "PROFILE_REVIEW_POLL_INTERVAL_MS"
	t.Cleanup(func() { os.Unsetenv(key) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=1500\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.Poll.IntervalMs)
}

func TestLoadDotenvDoesNotOverrideEnv(t *testing.T) {
	dir := chdirTemp(t)

	t.Setenv("PROFILE_REVIEW_EXPORT_DIR", "/from/env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PROFILE_REVIEW_EXPORT_DIR=/from/dotenv\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Export.Dir)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.API.BaseURL = "http://localhost:8080"
	cfg.API.TimeoutSecs = 30
	cfg.Poll.IntervalMs = 3000
	cfg.Retry.MaxAttempts = 4
	cfg.Retry.InitialBackoffMs = 1000
	cfg.Retry.MaxBackoffMs = 30000
	cfg.Server.Port = 8090
	return cfg
}

func TestValidateClient_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.API.BaseURL = " "
	cfg.API.TimeoutSecs = 0
	cfg.Poll.IntervalMs = 0

	err := cfg.Validate("client")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
	assert.Contains(t, err.Error(), "api.timeout_secs must be > 0")
	assert.Contains(t, err.Error(), "poll.interval_ms must be > 0")
}

func TestValidateClient_IgnoresPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate("client"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateRetryBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Retry.MaxAttempts = 0
	err := cfg.Validate("client")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_attempts must be between 1 and 10")

	cfg.Retry.MaxAttempts = 1
	assert.NoError(t, cfg.Validate("client"))

	cfg.Retry.MaxBackoffMs = 10
	err = cfg.Validate("client")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_backoff_ms")
}

func TestValidateRate(t *testing.T) {
	cfg := validDefaults()
	cfg.API.RatePerSec = -1
	err := cfg.Validate("client")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "api.rate_per_sec")
}
