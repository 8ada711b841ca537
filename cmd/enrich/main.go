// Package main runs a single enrichment pass and writes the resulting
// report to disk as Markdown and CSV. Intended for cron jobs and manual
// refreshes; the long-running service lives in cmd/server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/enrichment"
	"cardano-token-metrics/internal/marketdata"
	"cardano-token-metrics/internal/pricing"
	"cardano-token-metrics/internal/reporting"
	"cardano-token-metrics/internal/storage"
	filestore "cardano-token-metrics/internal/storage/file"
	"cardano-token-metrics/internal/storage/memory"
	"cardano-token-metrics/internal/storage/migrations"
	pgstore "cardano-token-metrics/internal/storage/postgres"
	"cardano-token-metrics/internal/trust"
	"cardano-token-metrics/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	outputDir := flag.String("output-dir", "output", "Directory for rendered report files")
	logLevel := flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		logger = logger.Level(lvl)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("cancelling pass")
		cancel()
	}()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build store")
	}
	defer cleanup()

	source := marketdata.NewClient(cfg.Source, logger)
	scorer, err := trust.NewScorer(cfg.Scoring)
	if err != nil {
		logger.Fatal().Err(err).Msg("build trust scorer")
	}

	orch := enrichment.New(enrichment.Options{
		Store:      store,
		Source:     source,
		Resolver:   pricing.NewResolver(source, cfg.Pricing, logger),
		Scorer:     scorer,
		Validator:  validation.NewValidator(cfg.Scoring),
		Enrichment: cfg.Enrichment,
		Pricing:    cfg.Pricing,
		Scoring:    cfg.Scoring,
		Logger:     logger,
	})

	report, err := orch.RunPass(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("enrichment pass failed")
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write markdown report")
	}
	csvPath := filepath.Join(*outputDir, "ranking.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.TopTokensByMarketCapValid)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write csv ranking")
	}

	logger.Info().
		Int("total_tokens", report.TotalTokens).
		Int("ranked", len(report.TopTokensByMarketCapValid)).
		Int("honeypots", report.HoneypotsFlagged).
		Int("degraded", report.DegradedTokens).
		Str("markdown", mdPath).
		Str("csv", csvPath).
		Msg("pass complete")
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.TokenStore, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewTokenStore(), func() {}, nil
	case "file":
		fs, err := filestore.NewTokenStore(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, fmt.Errorf("file store: %w", err)
		}
		return fs, func() {}, nil
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("postgres backend selected but no DSN configured")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		return pgstore.NewTokenStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
