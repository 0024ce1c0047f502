package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/skillswap/internal/adapters/notify"
	"github.com/okian/skillswap/internal/adapters/repository"
	service "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.Migrate(ctx, pool); err != nil {
				return err
			}
			log.Info(ctx, "migrations applied")
			return nil
		},
	}
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue pending matches once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				cfg.SweepBatch = limit
			}
			n, err := sweepOnce(ctx, cfg, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d matches\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum matches to expire (0 means no cap)")
	return cmd
}

func sweepOnce(ctx context.Context, cfg *config.Config, log logger.Logger) (int, error) {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return 0, err
	}
	defer b.Close()

	svc, err := newService(cfg, b, log, service.WithSinks(notify.NewLogSink(log)))
	if err != nil {
		return 0, err
	}
	if err := svc.Start(ctx); err != nil {
		return 0, err
	}
	defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()

	return svc.SweepExpired(ctx, cfg.SweepBatch)
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <users.json>",
		Short: "Upsert user profiles from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			users, err := readUsers(args[0])
			if err != nil {
				return err
			}
			if cfg.Store == config.StoreMemory {
				log.Warn(ctx, "seeding the in-memory store; data is discarded on exit, use serve --seed instead")
			}

			b, err := openBackends(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			for i := range users {
				saved, err := b.directory.Upsert(ctx, users[i])
				if err != nil {
					return fmt.Errorf("upsert %s: %w", users[i].ID, err)
				}
				log.Debug(ctx, "user upserted", logger.String("user", saved.ID), logger.Int64("version", saved.Version))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "upserted %d users\n", len(users))
			return nil
		},
	}
}

func readUsers(path string) ([]model.UserSnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	var users []model.UserSnapshot
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
