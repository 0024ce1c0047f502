package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/okian/skillswap/internal/adapters/notify"
	"github.com/okian/skillswap/internal/adapters/repository"
	service "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/pkg/logger"
)

var errNoDatabase = errors.New("database_url is not configured")

// backends holds the external connections selected by configuration.
type backends struct {
	pool      *pgxpool.Pool
	redis     *redis.Client
	store     lifecycle.Store
	directory service.Directory
}

func openBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	switch cfg.Store {
	case config.StorePostgres:
		pool, err := repository.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.pool = pool
		b.store = repository.NewPostgresStore(pool)
		b.directory = repository.NewPostgresDirectory(pool)
		log.Info(ctx, "using postgres store")
	default:
		b.store = repository.NewMemoryStore()
		b.directory = repository.NewMemoryDirectory()
		log.Info(ctx, "using in-memory store")
	}

	if cfg.RedisURL != "" {
		client, err := notify.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.redis = client
	}
	return b, nil
}

// Close releases every open connection.
func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errNoDatabase
	}
	pool, err := repository.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return pool, nil
}

func newService(cfg *config.Config, b *backends, log logger.Logger, opts ...service.Option) (*service.Service, error) {
	base := []service.Option{
		service.WithLogger(log),
		service.WithStore(b.store),
		service.WithDirectory(b.directory),
		service.WithMatchTTL(cfg.MatchTTL),
		service.WithMaxResults(cfg.MaxResults),
		service.WithScoreCacheSize(cfg.ScoreCacheSize),
		service.WithQueueSize(cfg.NotifyQueueSize),
		service.WithWorkerCount(cfg.DispatcherWorkers),
	}
	return service.New(append(base, opts...)...)
}
