package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowd-pulse-lab/internal/indicators"
)

var envKeys = []string{
	"POSTGRES_DSN", "CLICKHOUSE_DSN", "REDIS_ADDR", "REDIS_PASSWORD",
	"PULSE_USE_MEMORY", "PULSE_REDIS_DB", "PULSE_CACHE_TTL", "PULSE_HTTP_ADDR",
	"PULSE_INGEST_URL", "PULSE_INTERVAL_MINUTES", "PULSE_LOG_LEVEL", "PULSE_LOG_PRETTY",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5, cfg.Analytics.IntervalMinutes)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "pulse.yaml", `
analytics:
  interval_minutes: 15
  rsi:
    period: 21
    method: sma
  momentum:
    tau: 30
  holders:
    whale_threshold: 5000000
storage:
  postgres_dsn: postgres://localhost/pulse
cache:
  ttl: 90s
server:
  addr: ":9000"
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path, missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Analytics.IntervalMinutes)
	assert.Equal(t, 21, cfg.Analytics.RSI.Period)
	assert.Equal(t, indicators.MethodSMA, cfg.Analytics.RSI.Method)
	assert.Equal(t, 30, cfg.Analytics.Momentum.Tau)
	assert.Equal(t, 5e6, cfg.Analytics.Holders.WhaleThreshold)
	// untouched nested fields keep their defaults
	assert.Equal(t, 26, cfg.Analytics.MACD.Slow)
	assert.Equal(t, 60, cfg.Analytics.Holders.IntervalMinutes)
	assert.Equal(t, "postgres://localhost/pulse", cfg.Storage.PostgresDSN)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "pulse.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("PULSE_HTTP_ADDR", ":7000")
	t.Setenv("PULSE_INTERVAL_MINUTES", "60")
	t.Setenv("PULSE_CACHE_TTL", "5m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path, missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Analytics.IntervalMinutes)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv only fills variables that are unset, so unset the blanked ones.
	require.NoError(t, os.Unsetenv("POSTGRES_DSN"))
	require.NoError(t, os.Unsetenv("PULSE_LOG_LEVEL"))
	t.Cleanup(func() {
		os.Unsetenv("POSTGRES_DSN")
		os.Unsetenv("PULSE_LOG_LEVEL")
	})

	envFile := writeFile(t, "test.env", "POSTGRES_DSN=postgres://envfile/pulse\nPULSE_LOG_LEVEL=warn\n")

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "postgres://envfile/pulse", cfg.Storage.PostgresDSN)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PULSE_INTERVAL_MINUTES", "five")
	t.Setenv("PULSE_LOG_PRETTY", "sometimes")

	_, err := Load("", missingEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PULSE_INTERVAL_MINUTES")
	assert.Contains(t, err.Error(), "PULSE_LOG_PRETTY")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), missingEnvFile(t))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "bad.yaml", "analytics: [unterminated\n")

	_, err := Load(path, missingEnvFile(t))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Analytics.IntervalMinutes = -5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Ingest.BatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Cache.RedisAddr = "localhost:6379"
	cfg.Cache.Retention = time.Second
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.LoadFixtures = true
	assert.Error(t, cfg.Validate())
	cfg.Storage.UseMemory = true
	assert.NoError(t, cfg.Validate())
}
