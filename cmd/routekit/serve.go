package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/routekit/core/config"
	"github.com/dmitrymomot/routekit/core/health"
	"github.com/dmitrymomot/routekit/core/logger"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/core/server"
	"github.com/dmitrymomot/routekit/core/session"
	"github.com/dmitrymomot/routekit/core/socket"
	"github.com/dmitrymomot/routekit/integration/database/pg"
	"github.com/dmitrymomot/routekit/integration/database/redis"
	pgstore "github.com/dmitrymomot/routekit/integration/sessionstore/pg"
	redisstore "github.com/dmitrymomot/routekit/integration/sessionstore/redis"
	"github.com/dmitrymomot/routekit/metrics"
	"github.com/dmitrymomot/routekit/middleware"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Run the demo server until interrupted.

SESSION_BACKEND selects where sessions live: memory (default), redis
(REDIS_URL) or postgres (PG_CONN_URL).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides SERVER_ADDRESS and SERVER_PORT")
	return cmd
}

func serve(ctx context.Context, addr string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	log, err := logger.New(s.log)
	if err != nil {
		return err
	}

	d, cleanup, err := newDeps(ctx, s, log)
	if err != nil {
		return err
	}
	defer cleanup()

	app, err := newApp(d, router.WithConfig(s.router))
	if err != nil {
		return err
	}
	dispatcher, err := app.Build()
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	opts := []server.Option{server.WithLogger(log)}
	if addr != "" {
		srv := server.New(addr, opts...)
		return srv.Run(ctx, dispatcher)()
	}
	return server.Listen(ctx, s.server, dispatcher, opts...)
}

// newDeps connects the configured session backend and creates the shared
// collaborators. cleanup releases them in reverse order.
func newDeps(ctx context.Context, s settings, log *slog.Logger) (deps, func(), error) {
	tokens, err := middleware.NewCSRFTokens([]byte(s.app.CSRFSecret))
	if err != nil {
		return deps{}, nil, err
	}

	collector := metrics.New()
	hub := socket.NewHub(socket.WithLogger(log))
	collector.TrackConnections(hub.Len)

	d := deps{
		log:        log,
		hub:        hub,
		metrics:    collector,
		csrf:       tokens,
		adminToken: s.app.AdminToken,
		rateLimit: middleware.RateLimitConfig{
			Limit:  s.app.RateLimit,
			Window: s.app.RateWindow,
		},
	}

	var closers []func()
	cleanup := func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hub.Close(shutdown); err != nil {
			log.Warn("socket hub close", logger.Error(err))
		}
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sessOpts := []session.Option{session.WithConfig(s.session), session.WithLogger(log)}

	switch s.app.SessionBackend {
	case "", "memory":
		visits := session.NewMemoryStore[visit](sessOpts...)
		rates := session.NewMemoryStore[middleware.RateWindow](sessOpts...)
		go runSweeper(ctx, log, visits.Run(ctx))
		go runSweeper(ctx, log, rates.Run(ctx))
		collector.TrackSessions("visits", visits.Stats)
		d.visits, d.rates = visits, rates

	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return deps{}, nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return deps{}, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		d.probes = append(d.probes, health.Check("redis", redis.Healthcheck(client)))
		d.visits = redisstore.New[visit](client, redisstore.Config{Prefix: "visit:", ScanBatchSize: cfg.ScanBatchSize}, sessOpts...)
		d.rates = redisstore.New[middleware.RateWindow](client, redisstore.Config{Prefix: "rate:"}, sessOpts...)

	case "postgres", "pg":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return deps{}, nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return deps{}, nil, err
		}
		closers = append(closers, pool.Close)
		d.probes = append(d.probes, health.Check("postgres", pg.Healthcheck(pool)))
		if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations(), log); err != nil {
			pool.Close()
			return deps{}, nil, err
		}
		visits := pgstore.New[visit](pool, sessOpts...)
		go runSweeper(ctx, log, func() error { return visits.Run(ctx) })
		d.visits = visits
		d.rates = pgstore.New[middleware.RateWindow](pool, sessOpts...)

	default:
		return deps{}, nil, fmt.Errorf("unknown session backend %q", s.app.SessionBackend)
	}

	return d, cleanup, nil
}

func runSweeper(ctx context.Context, log *slog.Logger, run func() error) {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "session sweeper stopped", logger.Error(err))
	}
}
