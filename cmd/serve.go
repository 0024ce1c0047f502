package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/okian/skillswap/internal/adapters/http/api"
	"github.com/okian/skillswap/internal/adapters/http/swagger"
	"github.com/okian/skillswap/internal/adapters/mq/worker"
	"github.com/okian/skillswap/internal/adapters/notify"
	"github.com/okian/skillswap/internal/adapters/scheduler"
	service "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification dispatcher and expiry sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	addSeedFlag(cmd, opts)
	return cmd
}

func addSeedFlag(cmd *cobra.Command, opts *rootOptions) {
	cmd.Flags().StringVar(&opts.seedFile, "seed", "", "JSON array of users to upsert before serving (overrides seed_file)")
}

// server is the running application behind the HTTP listener.
type server struct {
	svc     *service.Service
	hub     *notify.Hub
	sweeper scheduler.Runner
	handler http.Handler
}

// newServer wires the service, sinks, sweeper and routes, and upserts the
// seed users. The service is started; the sweeper is not.
func newServer(ctx context.Context, cfg *config.Config, b *backends, log logger.Logger) (*server, error) {
	hub := notify.NewHub(notify.WithHubLogger(log))
	sinks := []worker.Sink{notify.NewLogSink(log), hub}
	if b.redis != nil {
		sinks = append(sinks, notify.NewRedisSink(b.redis))
	}

	svc, err := newService(cfg, b, log, service.WithSinks(sinks...))
	if err != nil {
		return nil, err
	}
	if cfg.SeedFile != "" {
		n, err := seedService(ctx, svc, cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "users seeded", logger.String("file", cfg.SeedFile), logger.Int("count", n))
	}

	// Dispatchers outlive the signal so queued notifications drain in Stop.
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}

	sweeper, err := newSweeper(cfg, svc, log)
	if err != nil {
		_ = svc.Stop(ctx)
		return nil, err
	}

	apiServer := api.NewServer(svc, svc,
		api.WithLogger(log),
		api.WithWebsocket(hub),
		api.WithDocs(func(r chi.Router) { swagger.Register(ctx, r) }),
	)
	return &server{svc: svc, hub: hub, sweeper: sweeper, handler: apiServer.Routes()}, nil
}

func seedService(ctx context.Context, svc *service.Service, path string) (int, error) {
	users, err := readUsers(path)
	if err != nil {
		return 0, err
	}
	for i := range users {
		if _, err := svc.UpsertUser(ctx, users[i]); err != nil {
			return i, fmt.Errorf("upsert %s: %w", users[i].ID, err)
		}
	}
	return len(users), nil
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open backends", logger.Error(err))
		return err
	}
	defer b.Close()

	running, err := newServer(ctx, cfg, b, log)
	if err != nil {
		return err
	}
	if err := running.sweeper.Start(ctx); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           running.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	running.sweeper.Stop()
	if err := running.svc.Stop(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "notification drain incomplete", logger.Error(err))
	}
	_ = running.hub.Close()

	log.Info(shutdownCtx, "server stopped")
	return nil
}

func newSweeper(cfg *config.Config, svc *service.Service, log logger.Logger) (scheduler.Runner, error) {
	opts := []scheduler.Option{
		scheduler.WithInterval(cfg.SweepInterval),
		scheduler.WithBatch(cfg.SweepBatch),
		scheduler.WithLogger(log),
	}
	if cfg.RedisURL != "" {
		return scheduler.NewAsynq(cfg.RedisURL, svc, opts...)
	}
	return scheduler.NewTicker(svc, opts...), nil
}
