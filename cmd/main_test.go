package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/skillswap/internal/adapters/http/api"
	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestConfigurationFromEnv(t *testing.T) {
	setEnv(t, map[string]string{
		"SKILLSWAP_ADDR":               ":8080",
		"SKILLSWAP_NOTIFY_QUEUE_SIZE":  "1000",
		"SKILLSWAP_DISPATCHER_WORKERS": "4",
		"SKILLSWAP_MATCH_TTL":          "24h",
	})

	convey.Convey("Given SKILLSWAP_ environment variables", t, func() {
		cfg, _, err := setup(context.Background(), &rootOptions{})

		convey.Convey("Then setup loads them and initializes logging", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.DispatcherWorkers, convey.ShouldEqual, 4)
			convey.So(cfg.MatchTTL, convey.ShouldEqual, 24*time.Hour)
			convey.So(func() { logger.Get() }, convey.ShouldNotPanic)
		})
	})
}

func TestConfigFlag(t *testing.T) {
	convey.Convey("Given a --config file", t, func() {
		path := filepath.Join(t.TempDir(), "skillswap.yaml")
		err := os.WriteFile(path, []byte("addr: \":7070\"\nmax_results: 10\n"), 0o600)
		convey.So(err, convey.ShouldBeNil)
		t.Setenv(config.EnvFile, "")

		cfg, _, err := setup(context.Background(), &rootOptions{configFile: path})

		convey.Convey("Then values come from the file", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.MaxResults, convey.ShouldEqual, 10)
		})
	})

	convey.Convey("Given a missing --config file", t, func() {
		_, _, err := setup(context.Background(), &rootOptions{configFile: "/nonexistent/skillswap.yaml"})

		convey.Convey("Then setup fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServiceWiring(t *testing.T) {
	convey.Convey("Given in-memory backends", t, func() {
		ctx := context.Background()
		cfg := config.New()
		log := logger.Nop()

		b, err := openBackends(ctx, cfg, log)
		convey.So(err, convey.ShouldBeNil)
		defer b.Close()

		svc, err := newService(cfg, b, log)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		convey.Convey("When the API is mounted", func() {
			handler := api.NewServer(svc, svc).Routes()

			convey.Convey("Then the health endpoint answers", func() {
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then stats are served", func() {
				req := httptest.NewRequest(http.MethodGet, "/stats", nil)
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the sweeper is chosen without redis", func() {
			runner, err := newSweeper(cfg, svc, log)

			convey.Convey("Then the in-process ticker is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(runner, convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given a postgres store without a database url", t, func() {
		cfg := config.New()

		convey.Convey("Then opening the pool fails", func() {
			_, err := openPool(context.Background(), cfg)
			convey.So(err, convey.ShouldEqual, errNoDatabase)
		})
	})
}

func TestCommandTree(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then every subcommand is registered", func() {
			for _, name := range []string{"serve", "migrate", "sweep", "seed"} {
				cmd, _, err := root.Find([]string{name})
				convey.So(err, convey.ShouldBeNil)
				convey.So(cmd.Name(), convey.ShouldEqual, name)
			}
		})

		convey.Convey("Then --config is a persistent flag", func() {
			convey.So(root.PersistentFlags().Lookup("config"), convey.ShouldNotBeNil)
		})

		convey.Convey("Then serve accepts --seed", func() {
			serve, _, err := root.Find([]string{"serve"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(serve.Flags().Lookup("seed"), convey.ShouldNotBeNil)
			convey.So(root.Flags().Lookup("seed"), convey.ShouldNotBeNil)
		})
	})
}

func TestSeedAndSweepCommands(t *testing.T) {
	t.Setenv(config.EnvFile, "")
	t.Setenv("SKILLSWAP_STORE", config.StoreMemory)

	convey.Convey("Given a users file", t, func() {
		path := filepath.Join(t.TempDir(), "users.json")
		body := `[
			{"id":"alice","offered_skills":[{"name":"go","level":"expert"}],"active":true},
			{"id":"bob","desired_skills":[{"name":"go","level":"beginner"}],"active":true}
		]`
		convey.So(os.WriteFile(path, []byte(body), 0o600), convey.ShouldBeNil)

		convey.Convey("When seed runs", func() {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetArgs([]string{"seed", path})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then both users are upserted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "upserted 2 users")
			})
		})

		convey.Convey("When the file is malformed", func() {
			convey.So(os.WriteFile(path, []byte("{"), 0o600), convey.ShouldBeNil)
			_, err := readUsers(path)

			convey.Convey("Then decoding fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given an empty store", t, func() {
		convey.Convey("When sweep runs", func() {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetArgs([]string{"sweep", "--limit", "10"})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then nothing expires", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "expired 0 matches")
			})
		})
	})
}

const seedJSON = `[
	{"id":"alice","desired_skills":[{"name":"go","level":"beginner"}],"active":true,"verified":true},
	{"id":"bob","offered_skills":[{"name":"Go","level":"expert"}],"active":true,"verified":true}
]`

func TestServeWithSeedFile(t *testing.T) {
	t.Setenv(config.EnvFile, "")
	t.Setenv("SKILLSWAP_STORE", config.StoreMemory)

	convey.Convey("Given serve started with --seed", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "users.json")
		convey.So(os.WriteFile(path, []byte(seedJSON), 0o600), convey.ShouldBeNil)

		cfg, log, err := setup(ctx, &rootOptions{seedFile: path})
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.SeedFile, convey.ShouldEqual, path)

		b, err := openBackends(ctx, cfg, log)
		convey.So(err, convey.ShouldBeNil)
		defer b.Close()

		running, err := newServer(ctx, cfg, b, log)
		convey.So(err, convey.ShouldBeNil)
		defer func() {
			_ = running.svc.Stop(ctx)
			_ = running.hub.Close()
		}()

		convey.Convey("When alice asks for suggestions", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/suggestions?skill=go", nil)
			req.Header.Set(api.CallerHeader, "alice")
			rec := httptest.NewRecorder()
			running.handler.ServeHTTP(rec, req)

			convey.Convey("Then the seeded candidate is returned", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				var body struct {
					Count   int         `json:"count"`
					Matches []api.Entry `json:"matches"`
				}
				convey.So(json.Unmarshal(rec.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body.Count, convey.ShouldEqual, 1)
				convey.So(body.Matches[0].UserID, convey.ShouldEqual, "bob")
			})
		})
	})

	convey.Convey("Given a seed file that does not exist", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.SeedFile = filepath.Join(t.TempDir(), "missing.json")
		b, err := openBackends(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer b.Close()

		convey.Convey("Then the server refuses to start", func() {
			_, err := newServer(ctx, cfg, b, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the metrics registry", t, func() {
		updateSystemMetrics()
		families, err := metrics.GetRegistry().Gather()
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the goroutine gauge is set", func() {
			var goroutines float64
			for _, f := range families {
				if f.GetName() == "skillswap_matching_system_goroutine_count" {
					goroutines = f.GetMetric()[0].GetGauge().GetValue()
				}
			}
			convey.So(goroutines, convey.ShouldBeGreaterThan, 0)
		})
	})
}
