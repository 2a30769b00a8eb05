// Package config loads service configuration from a YAML file, a .env file
// and environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"crowd-pulse-lab/internal/analytics"
)

// StorageConfig selects the storage backends.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	UseMemory     bool   `yaml:"use_memory"`    // in-memory stores, no databases
	LoadFixtures  bool   `yaml:"load_fixtures"` // seed memory stores with demo data
}

// CacheConfig configures the report cache.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"` // empty disables the Redis tier
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Retention     time.Duration `yaml:"retention"` // how long stale reports are kept in memory and Redis
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MetricsNamespace string        `yaml:"metrics_namespace"`
}

// IngestConfig configures the websocket engagement feed.
type IngestConfig struct {
	URL           string        `yaml:"url"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	MaxBackoff    time.Duration `yaml:"max_backoff"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the complete service configuration.
type Config struct {
	Analytics analytics.Config `yaml:"analytics"`
	Storage   StorageConfig    `yaml:"storage"`
	Cache     CacheConfig      `yaml:"cache"`
	Server    ServerConfig     `yaml:"server"`
	Ingest    IngestConfig     `yaml:"ingest"`
	Log       LogConfig        `yaml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Analytics: analytics.DefaultConfig(),
		Cache: CacheConfig{
			TTL:       time.Minute,
			Retention: 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:             ":8080",
			ReadTimeout:      10 * time.Second,
			WriteTimeout:     30 * time.Second,
			MetricsNamespace: "crowd_pulse",
		},
		Ingest: IngestConfig{
			BatchSize:     100,
			FlushInterval: 2 * time.Second,
			MaxBackoff:    30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when empty), then envFile (".env" when empty, ignored when
// missing), then environment variables.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Cache.RedisAddr != "" && c.Cache.Retention < c.Cache.TTL {
		return fmt.Errorf("cache.retention (%s) must be at least cache.ttl (%s)", c.Cache.Retention, c.Cache.TTL)
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be >= 1, got %d", c.Ingest.BatchSize)
	}
	if c.Storage.LoadFixtures && !c.Storage.UseMemory {
		return fmt.Errorf("storage.load_fixtures requires storage.use_memory")
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	c.Storage.PostgresDSN = getEnv("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.ClickhouseDSN = getEnv("CLICKHOUSE_DSN", c.Storage.ClickhouseDSN)
	c.Storage.UseMemory = getEnvBool("PULSE_USE_MEMORY", c.Storage.UseMemory, &errs)

	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = getEnvInt("PULSE_REDIS_DB", c.Cache.RedisDB, &errs)
	c.Cache.TTL = getEnvDuration("PULSE_CACHE_TTL", c.Cache.TTL, &errs)

	c.Server.Addr = getEnv("PULSE_HTTP_ADDR", c.Server.Addr)
	c.Ingest.URL = getEnv("PULSE_INGEST_URL", c.Ingest.URL)
	c.Analytics.IntervalMinutes = getEnvInt("PULSE_INTERVAL_MINUTES", c.Analytics.IntervalMinutes, &errs)

	c.Log.Level = getEnv("PULSE_LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvBool("PULSE_LOG_PRETTY", c.Log.Pretty, &errs)

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}
