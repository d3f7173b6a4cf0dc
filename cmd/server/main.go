// Package main provides the HTTP server entry point for pathofgreatness.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/leo-guinan/pathofgreatness/internal/config"
	"github.com/leo-guinan/pathofgreatness/internal/costs"
	dbgorm "github.com/leo-guinan/pathofgreatness/internal/db/gorm"
	"github.com/leo-guinan/pathofgreatness/internal/gateway"
	"github.com/leo-guinan/pathofgreatness/internal/journey"
	"github.com/leo-guinan/pathofgreatness/internal/pipeline"
	"github.com/leo-guinan/pathofgreatness/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if cfg.OpenRouterAPIKey == "" {
		log.Warn().Msg("OPENROUTER_API_KEY is not set, generation calls will fail")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to create data directory")
	}

	store, err := dbgorm.NewStore(dbgorm.Config{
		Path:     cfg.DBPath,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer store.Close()

	pricing := costs.NewPricing()
	if cfg.PricingFile != "" {
		if err := pricing.LoadFile(cfg.PricingFile); err != nil {
			log.Warn().Err(err).Str("file", cfg.PricingFile).Msg("Failed to load pricing file, using defaults")
		}
	}

	client := gateway.NewClient(gateway.Config{
		BaseURL:    cfg.OpenRouterBaseURL,
		APIKey:     cfg.OpenRouterAPIKey,
		Model:      cfg.Model,
		Timeout:    cfg.GatewayTimeout,
		MaxRetries: cfg.GatewayMaxRetries,
	}, pricing)

	ledger := costs.NewLedger(dbgorm.NewCostStore(store))
	engine := journey.NewEngine(
		dbgorm.NewSessionStore(store),
		dbgorm.NewCharacterStore(store),
		dbgorm.NewTimelineStore(store),
		ledger,
		pipeline.New(client, ledger),
	)
	svc := worker.NewService(Version, cfg, engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return svc.ListenAndServe(ctx)
	})
	if cfg.PricingFile != "" {
		watcher, err := costs.NewPricingWatcher(cfg.PricingFile, pricing)
		if err != nil {
			log.Warn().Err(err).Msg("Pricing watcher unavailable")
		} else {
			group.Go(func() error {
				return watcher.Run(ctx)
			})
		}
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Shutdown complete")
}
