package repository

import "time"

// PoolOption tunes the PostgreSQL connection pool.
type PoolOption func(*poolSettings)

type poolSettings struct {
	maxConns        int32
	minConns        int32
	maxConnIdleTime time.Duration
	maxConnLifetime time.Duration
}

func defaultPoolSettings() poolSettings {
	return poolSettings{
		maxConns:        20,
		minConns:        2,
		maxConnIdleTime: 30 * time.Minute,
		maxConnLifetime: time.Hour,
	}
}

// WithMaxConns sets the maximum pool size.
func WithMaxConns(n int32) PoolOption {
	return func(s *poolSettings) {
		if n > 0 {
			s.maxConns = n
		}
	}
}

// WithMinConns sets the number of connections kept open.
func WithMinConns(n int32) PoolOption {
	return func(s *poolSettings) {
		if n >= 0 {
			s.minConns = n
		}
	}
}

// WithConnLifetime sets idle and total connection lifetimes.
func WithConnLifetime(idle, total time.Duration) PoolOption {
	return func(s *poolSettings) {
		if idle > 0 {
			s.maxConnIdleTime = idle
		}
		if total > 0 {
			s.maxConnLifetime = total
		}
	}
}
