package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/treesleuth/internal/catalog"
	"github.com/playperu/treesleuth/internal/config"
	"github.com/playperu/treesleuth/internal/database"
	"github.com/playperu/treesleuth/internal/handler/health"
	"github.com/playperu/treesleuth/internal/leaderboard"
	"github.com/playperu/treesleuth/internal/migrations"
	"github.com/playperu/treesleuth/internal/progress"
	"github.com/playperu/treesleuth/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Catalog ---
	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("loading species catalog: %w", err)
	}
	logger.Info("loaded species catalog", "species", cat.Len())

	checks := health.NewHandler(logger, map[string]health.Checker{
		"sqlite": database.Checker{DB: db},
	})

	// --- Leaderboard ---
	var ranker leaderboard.Ranker = leaderboard.NewMemory()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		board := leaderboard.NewRedis(rdb)
		checks.Optional("redis", board)
		ranker = board
		logger.Info("connected to redis")
	} else {
		logger.Info("REDIS_URL not set, keeping leaderboard in memory")
	}

	// --- Play ---
	play := server.NewPlay(ctx, logger, cat, progress.NewStore(db, logger), ranker, server.PlayConfig{
		CaseSeconds:  cfg.CaseSeconds,
		TickInterval: cfg.TickInterval,
		SessionTTL:   cfg.SessionTTL,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, play, cfg.SPADir, func(r chi.Router) {
		r.Mount("/healthz", checks.Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return play.RunReaper(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
