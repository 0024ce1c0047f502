package scheduler

import (
	"time"

	"github.com/okian/skillswap/pkg/logger"
)

const (
	defaultInterval = time.Minute
	defaultBatch    = 500
	defaultQueue    = "cleanup"
)

type settings struct {
	interval time.Duration
	batch    int
	queue    string
	log      logger.Logger
}

func defaults() settings {
	return settings{interval: defaultInterval, batch: defaultBatch, queue: defaultQueue, log: logger.Nop()}
}

// Option configures a scheduler.
type Option func(*settings)

// WithInterval sets how often a sweep is triggered.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithBatch caps the number of records expired per sweep. Zero or less means no cap.
func WithBatch(n int) Option {
	return func(s *settings) { s.batch = n }
}

// WithQueue sets the asynq queue name.
func WithQueue(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.queue = name
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
