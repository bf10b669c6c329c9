// Package config loads application configuration from environment
// variables, with an optional YAML file overlay for deployments that
// prefer checked-in config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/buildsight/marksearch/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds database and cache configuration
type StorageConfig struct {
	// Driver is "sqlite3" or "postgres"
	Driver string `yaml:"driver"`
	// DSN is the driver-specific connection string
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`

	// Redis suggestion cache tier (optional)
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Suggestion cache and refresh
	SuggestCacheSize    int           `yaml:"suggest_cache_size"`
	SuggestCacheTTL     time.Duration `yaml:"suggest_cache_ttl"`
	SuggestRefreshEvery time.Duration `yaml:"suggest_refresh_every"`
}

// ObservabilityConfig holds logging, metrics and tracing settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel `yaml:"-"`
	LogLevelName   string                 `yaml:"log_level"`
	MetricsEnabled bool                   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// LoadConfig loads configuration from environment variables. When path is
// non-empty, the YAML file is read first and environment variables override
// its values.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Server:        defaultServerConfig(),
		Storage:       defaultStorageConfig(),
		Observability: defaultObservabilityConfig(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)
	cfg.Observability.LogLevel = observability.ParseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            "8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

func defaultStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:              "sqlite3",
		DSN:                 "marksearch.db",
		MaxOpenConns:        20,
		MaxIdleConns:        2,
		SuggestCacheSize:    1024,
		SuggestCacheTTL:     5 * time.Minute,
		SuggestRefreshEvery: 15 * time.Minute,
	}
}

func defaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevelName:       "info",
		MetricsEnabled:     true,
		OTelServiceName:    "marksearch",
		OTelServiceVersion: "dev",
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("MARKSEARCH_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("MARKSEARCH_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("MARKSEARCH_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("MARKSEARCH_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("MARKSEARCH_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("MARKSEARCH_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Storage.Driver = getEnv("MARKSEARCH_DB_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getEnv("MARKSEARCH_DB_DSN", cfg.Storage.DSN)
	cfg.Storage.MaxOpenConns = getEnvInt("MARKSEARCH_DB_MAX_OPEN_CONNS", cfg.Storage.MaxOpenConns)
	cfg.Storage.MaxIdleConns = getEnvInt("MARKSEARCH_DB_MAX_IDLE_CONNS", cfg.Storage.MaxIdleConns)
	cfg.Storage.RedisAddr = getEnv("MARKSEARCH_REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getEnv("MARKSEARCH_REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.RedisDB = getEnvInt("MARKSEARCH_REDIS_DB", cfg.Storage.RedisDB)
	cfg.Storage.SuggestCacheSize = getEnvInt("MARKSEARCH_SUGGEST_CACHE_SIZE", cfg.Storage.SuggestCacheSize)
	cfg.Storage.SuggestCacheTTL = getEnvDuration("MARKSEARCH_SUGGEST_CACHE_TTL", cfg.Storage.SuggestCacheTTL)
	cfg.Storage.SuggestRefreshEvery = getEnvDuration("MARKSEARCH_SUGGEST_REFRESH_EVERY", cfg.Storage.SuggestRefreshEvery)

	cfg.Observability.LogLevelName = getEnv("MARKSEARCH_LOG_LEVEL", cfg.Observability.LogLevelName)
	cfg.Observability.MetricsEnabled = getEnvBool("MARKSEARCH_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.OTelEnabled = getEnvBool("MARKSEARCH_OTEL_ENABLED", cfg.Observability.OTelEnabled)
	cfg.Observability.OTelEndpoint = getEnv("MARKSEARCH_OTEL_ENDPOINT", cfg.Observability.OTelEndpoint)
	cfg.Observability.OTelServiceName = getEnv("MARKSEARCH_OTEL_SERVICE_NAME", cfg.Observability.OTelServiceName)
	cfg.Observability.OTelServiceVersion = getEnv("MARKSEARCH_OTEL_SERVICE_VERSION", cfg.Observability.OTelServiceVersion)
	cfg.Observability.OTelInsecure = getEnvBool("MARKSEARCH_OTEL_INSECURE", cfg.Observability.OTelInsecure)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be numeric: %s", c.Server.Port)
	}
	switch c.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage DSN is required")
	}
	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OTel endpoint is required when OTel is enabled")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
