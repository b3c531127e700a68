package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// StorageBackend selects the store implementation wired in at startup.
type StorageBackend string

const (
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendRedis    StorageBackend = "redis"
)

func (b StorageBackend) IsValid() bool {
	return b == StorageBackendPostgres || b == StorageBackendRedis
}

type Config struct {
	// Environment is not read from the file, Load sets it
	Environment string `toml:"-"`

	Host        string
	Port        int
	MetricsPort int `toml:"metrics_port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	StorageBackend StorageBackend `toml:"storage_backend"`
	PostgresHost   string         `toml:"postgres_host"`
	PostgresPort   string         `toml:"postgres_port"`
	PostgresDBName string         `toml:"postgres_db_name"`
	RedisHost      string         `toml:"redis_host"`
	RedisPort      int            `toml:"redis_port"`
	// chart endpoint response cache
	ChartCacheExpireSeconds int `toml:"chart_cache_expire_seconds"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}

	cfg.Environment = env

	if !cfg.StorageBackend.IsValid() {
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}

	return cfg, nil
}
