package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/skillswap/internal/domain/model"
)

// Publisher is the subset of the redis client used by RedisSink.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes events on a per-user pub/sub channel.
type RedisSink struct {
	client Publisher
}

// NewRedisSink creates a sink over an existing client.
func NewRedisSink(client Publisher) *RedisSink {
	return &RedisSink{client: client}
}

// Channel returns the pub/sub channel for a user.
func Channel(userID string) string {
	return fmt.Sprintf("user:%s:matches", userID)
}

// Name implements worker.Sink.
func (s *RedisSink) Name() string { return "redis" }

// Deliver implements worker.Sink.
func (s *RedisSink) Deliver(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam
	data, err := encode(e)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, Channel(e.RecipientID), data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.ID, err)
	}
	return nil
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
