// Package main runs the token metrics service: scheduled enrichment passes
// plus the read-only HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cardano-token-metrics/internal/api"
	"cardano-token-metrics/internal/cache"
	redcache "cardano-token-metrics/internal/cache/redis"
	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/enrichment"
	"cardano-token-metrics/internal/marketdata"
	"cardano-token-metrics/internal/observability"
	"cardano-token-metrics/internal/pricing"
	"cardano-token-metrics/internal/storage"
	chstore "cardano-token-metrics/internal/storage/clickhouse"
	filestore "cardano-token-metrics/internal/storage/file"
	"cardano-token-metrics/internal/storage/memory"
	"cardano-token-metrics/internal/storage/migrations"
	pgstore "cardano-token-metrics/internal/storage/postgres"
	"cardano-token-metrics/internal/trust"
	"cardano-token-metrics/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	logLevel := flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "Human-readable console log output")
	flag.Parse()

	logger := setupLogger(*logLevel, *pretty)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("")

	store, history, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build stores")
	}
	defer cleanup()

	reportCache, err := buildCache(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build report cache")
	}

	source := marketdata.NewClient(cfg.Source, logger, marketdata.WithMetrics(metrics))

	scorer, err := trust.NewScorer(cfg.Scoring)
	if err != nil {
		logger.Fatal().Err(err).Msg("build trust scorer")
	}

	orch := enrichment.New(enrichment.Options{
		Store:      store,
		History:    history,
		Source:     source,
		Resolver:   pricing.NewResolver(source, cfg.Pricing, logger),
		Scorer:     scorer,
		Validator:  validation.NewValidator(cfg.Scoring),
		Enrichment: cfg.Enrichment,
		Pricing:    cfg.Pricing,
		Scoring:    cfg.Scoring,
		Metrics:    metrics,
		Logger:     logger,
	})

	server, err := api.NewServer(cfg.Server, api.Options{
		Store:          store,
		Cache:          reportCache,
		MetricsHandler: observability.Handler(),
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build http server")
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
	}()

	go runScheduler(ctx, orch, reportCache, cfg.Enrichment.PassInterval(), logger)

	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("shutdown complete")
}

// runScheduler runs one enrichment pass immediately, then on every tick.
// A pass that overruns the interval is never run concurrently with the
// next one; overlapping ticks are skipped.
func runScheduler(ctx context.Context, orch *enrichment.Orchestrator, reportCache cache.ReportCache, interval time.Duration, logger zerolog.Logger) {
	var passRunning atomic.Bool

	runOnce := func() {
		if !passRunning.CompareAndSwap(false, true) {
			logger.Warn().Msg("previous enrichment pass still running, skipping tick")
			return
		}
		defer passRunning.Store(false)

		if _, err := orch.RunPass(ctx); err != nil {
			logger.Error().Err(err).Msg("enrichment pass failed")
			return
		}
		// Serve the fresh report on the next read.
		if err := reportCache.Invalidate(ctx); err != nil {
			logger.Warn().Err(err).Msg("invalidate report cache")
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go runOnce()
		}
	}
}

// buildStores constructs the token store and optional metric history store
// per the configured backend, applying migrations where the backend has a
// schema.
func buildStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.TokenStore, storage.MetricHistoryStore, func(), error) {
	var (
		store   storage.TokenStore
		cleanup = func() {}
	)

	switch cfg.Storage.Backend {
	case "memory":
		store = memory.NewTokenStore()
	case "file":
		fs, err := filestore.NewTokenStore(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("file store: %w", err)
		}
		store = fs
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, nil, nil, fmt.Errorf("postgres backend selected but no DSN configured")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		store = pgstore.NewTokenStore(pool)
		cleanup = pool.Close
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	// Metric history is optional. ClickHouse when configured, in-memory
	// otherwise so history endpoints keep working in dev.
	var history storage.MetricHistoryStore
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		history = chstore.NewMetricHistoryStore(conn)
		prevCleanup := cleanup
		cleanup = func() {
			if err := conn.Close(); err != nil {
				logger.Warn().Err(err).Msg("close clickhouse connection")
			}
			prevCleanup()
		}
	} else {
		history = memory.NewMetricHistoryStore()
	}

	return store, history, cleanup, nil
}

func buildCache(cfg *config.Config, logger zerolog.Logger) (cache.ReportCache, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryCache(cfg.Cache.TTL(), time.Now), nil
	case "redis":
		c, err := redcache.New(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("report cache on redis")
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func setupLogger(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
