package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/okian/skillswap/pkg/logger"
)

// Runner starts and stops periodic sweeping.
type Runner interface {
	Start(ctx context.Context) error
	Stop()
}

// Ticker sweeps in-process on a fixed interval. It is used when no redis is
// configured.
type Ticker struct {
	sweeper Sweeper
	cfg     settings

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker creates an in-process sweeper loop.
func NewTicker(sweeper Sweeper, opts ...Option) *Ticker {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.log = cfg.log.Named("sweeper")
	return &Ticker{sweeper: sweeper, cfg: cfg}
}

// Start launches the loop. Calling Start twice is a no-op.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)
	return nil
}

func (t *Ticker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.cfg.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.sweeper.SweepExpired(ctx, t.cfg.batch); err != nil && !errors.Is(err, context.Canceled) {
				t.cfg.log.Error(ctx, "expiry sweep failed", logger.Error(err))
			}
		}
	}
}

// Stop cancels the loop and waits for the current sweep.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Asynq enqueues sweep tasks on redis and processes them with an asynq
// server, so only one sweep per interval runs across replicas.
type Asynq struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	cfg    settings

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAsynq creates a redis-backed scheduler from a redis:// URL.
func NewAsynq(redisURL string, sweeper Sweeper, opts ...Option) (*Asynq, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.log = cfg.log.Named("sweeper")

	conn, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	server := asynq.NewServer(conn, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{cfg.queue: 1},
		Logger:      asynqLogger{log: cfg.log},
	})
	mux := asynq.NewServeMux()
	mux.Handle(TypeExpireSweep, NewHandler(sweeper, cfg.log))

	return &Asynq{
		client: asynq.NewClient(conn),
		server: server,
		mux:    mux,
		cfg:    cfg,
	}, nil
}

// Start runs the task server and the enqueue loop.
func (a *Asynq) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return nil
	}
	if err := a.server.Start(a.mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go a.loop(ctx, a.done)
	return nil
}

// Enqueue schedules one sweep now. Duplicates within the interval are ignored.
func (a *Asynq) Enqueue(ctx context.Context) error {
	task, err := NewSweepTask(a.cfg.batch)
	if err != nil {
		return err
	}
	_, err = a.client.EnqueueContext(ctx, task, asynq.Queue(a.cfg.queue), asynq.Unique(a.cfg.interval))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("enqueue sweep: %w", err)
	}
	return nil
}

func (a *Asynq) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.cfg.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Enqueue(ctx); err != nil {
				a.cfg.log.Warn(ctx, "error enqueueing sweep task", logger.Error(err))
			}
		}
	}
}

// Stop halts enqueueing and shuts the task server down.
func (a *Asynq) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	a.server.Shutdown()
	_ = a.client.Close()
}

// asynqLogger routes asynq's internal logging through our logger.
type asynqLogger struct {
	log logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) {
	l.log.Debug(context.Background(), fmt.Sprint(args...))
}

func (l asynqLogger) Info(args ...interface{}) {
	l.log.Info(context.Background(), fmt.Sprint(args...))
}

func (l asynqLogger) Warn(args ...interface{}) {
	l.log.Warn(context.Background(), fmt.Sprint(args...))
}

func (l asynqLogger) Error(args ...interface{}) {
	l.log.Error(context.Background(), fmt.Sprint(args...))
}

func (l asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal(context.Background(), fmt.Sprint(args...))
}
