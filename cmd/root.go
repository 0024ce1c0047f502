package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/pkg/logger"
)

const app = "skillswap"

// Actual version can be specified in build command.
var version = "dev"

type rootOptions struct {
	configFile string
	seedFile   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           app,
		Short:         "skillswap scores, ranks and tracks skill-exchange matches",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides "+config.EnvFile+")")
	addSeedFlag(root, opts)

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSweepCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

// setup loads configuration and initializes the global logger.
func setup(ctx context.Context, opts *rootOptions) (*config.Config, logger.Logger, error) {
	if opts.configFile != "" {
		if err := os.Setenv(config.EnvFile, opts.configFile); err != nil {
			return nil, nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.seedFile != "" {
		cfg.SeedFile = opts.seedFile
	}

	var initOpts []logger.InitOption
	if cfg.LogJSON {
		initOpts = append(initOpts, logger.WithJSON())
	}
	if err := logger.Init(initOpts...); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}
