package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/skillswap/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SKILLSWAP_ADDR", ":8080")
			_ = os.Setenv("SKILLSWAP_MATCH_TTL", "48h")
			_ = os.Setenv("SKILLSWAP_MAX_RESULTS", "20")
			_ = os.Setenv("SKILLSWAP_NOTIFY_QUEUE_SIZE", "500")
			_ = os.Setenv("SKILLSWAP_LOG_JSON", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MatchTTL, convey.ShouldEqual, 48*time.Hour)
				convey.So(cfg.MaxResults, convey.ShouldEqual, 20)
				convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.LogJSON, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
# comments are fine
addr: ":9090"
store: postgres
database_url: "postgres://db/skillswap"
redis_url: "redis://cache:6379/0"
sweep_interval: 30s
sweep_batch: 100
dispatcher_workers: 8
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv(config.EnvFile, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, config.StorePostgres)
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://db/skillswap")
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://cache:6379/0")
				convey.So(cfg.SweepInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.SweepBatch, convey.ShouldEqual, 100)
				convey.So(cfg.DispatcherWorkers, convey.ShouldEqual, 8)
				convey.So(cfg.MatchTTL, convey.ShouldEqual, 168*time.Hour)
			})

			convey.Convey("And env overrides the file", func() {
				_ = os.Setenv("SKILLSWAP_ADDR", ":7070")
				_ = os.Setenv("SKILLSWAP_SWEEP_BATCH", "5")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.SweepBatch, convey.ShouldEqual, 5)
				convey.So(cfg.Store, convey.ShouldEqual, config.StorePostgres)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv(config.EnvFile, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.EnvFile, "/non/existent/skillswap.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SKILLSWAP_MAX_RESULTS", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid duration", func() {
			_ = os.Setenv("SKILLSWAP_MATCH_TTL", "a week")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SKILLSWAP_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When max_results exceeds the cap", func() {
			_ = os.Setenv("SKILLSWAP_MAX_RESULTS", "51")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		config.EnvFile,
		"SKILLSWAP_ADDR",
		"SKILLSWAP_MATCH_TTL",
		"SKILLSWAP_MAX_RESULTS",
		"SKILLSWAP_NOTIFY_QUEUE_SIZE",
		"SKILLSWAP_LOG_JSON",
		"SKILLSWAP_SWEEP_BATCH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "skillswap-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
