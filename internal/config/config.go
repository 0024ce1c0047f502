// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and SKILLSWAP_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// MaxResultsLimit is the hard cap on suggestions per request.
const MaxResultsLimit = 50

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches the log handler to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseURL is the postgres connection string.
	DatabaseURL string `koanf:"database_url"`

	// RedisURL enables redis pub/sub notifications and asynq sweeping.
	RedisURL string `koanf:"redis_url"`

	// MatchTTL is how long a pending match stays open.
	MatchTTL time.Duration `koanf:"match_ttl"`

	// MaxResults caps suggestions per request.
	MaxResults int `koanf:"max_results"`

	// ScoreCacheSize bounds the score memo. Zero disables it.
	ScoreCacheSize int `koanf:"score_cache_size"`

	// NotifyQueueSize bounds the in-memory notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// DispatcherWorkers sets the number of notification workers.
	DispatcherWorkers int `koanf:"dispatcher_workers"`

	// SweepInterval and SweepBatch drive the bulk expiry sweep.
	SweepInterval time.Duration `koanf:"sweep_interval"`
	SweepBatch    int           `koanf:"sweep_batch"`

	// SeedFile is an optional JSON array of user snapshots upserted by serve
	// before it starts listening.
	SeedFile string `koanf:"seed_file"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		Store:             StoreMemory,
		MatchTTL:          7 * 24 * time.Hour,
		MaxResults:        MaxResultsLimit,
		ScoreCacheSize:    100_000,
		NotifyQueueSize:   10_000,
		DispatcherWorkers: 4,
		SweepInterval:     time.Minute,
		SweepBatch:        500,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StorePostgres, c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
	case c.MatchTTL <= 0:
		return fmt.Errorf("%w: match_ttl must be positive", ErrInvalidConfig)
	case c.MaxResults < 1 || c.MaxResults > MaxResultsLimit:
		return fmt.Errorf("%w: max_results must be within 1..%d", ErrInvalidConfig, MaxResultsLimit)
	case c.ScoreCacheSize < 0:
		return fmt.Errorf("%w: score_cache_size must not be negative", ErrInvalidConfig)
	case c.NotifyQueueSize < 1:
		return fmt.Errorf("%w: notify_queue_size must be positive", ErrInvalidConfig)
	case c.SweepInterval <= 0:
		return fmt.Errorf("%w: sweep_interval must be positive", ErrInvalidConfig)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (string, error) {
	switch l := strings.ToLower(s); l {
	case "debug", "info", "warn", "warning", "error":
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, s)
	}
}
