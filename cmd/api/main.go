package main

import (
	"log"

	"github.com/tollgate-ai/tollgate/internal/app"
	"github.com/tollgate-ai/tollgate/internal/config"
	"github.com/tollgate-ai/tollgate/internal/extractor"
	"github.com/tollgate-ai/tollgate/internal/metrics"
	"github.com/tollgate-ai/tollgate/internal/pricing"
	"github.com/tollgate-ai/tollgate/internal/storage"
	"github.com/tollgate-ai/tollgate/internal/tokenizer"
	"github.com/tollgate-ai/tollgate/internal/transaction"
	"github.com/tollgate-ai/tollgate/internal/transport/http/handler"
)

func main() {
	if err := config.EnsureDataDir(); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	if err := config.EnsureConfigFile(); err != nil {
		log.Fatalf("failed to create config file: %v", err)
	}

	cfg := config.Load()
	logger := setupLogger()

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	pricelist, err := pricing.LoadPricelist(cfg.PricelistPath)
	if err != nil {
		log.Fatalf("failed to load pricelist: %v", err)
	}

	m := metrics.New()
	builder := transaction.NewBuilder(
		extractor.NewRegistry(), pricelist, tokenizer.New(), store, logger)

	handlers, err := handler.New(store, builder, m, logger)
	if err != nil {
		log.Fatalf("failed to create handlers: %v", err)
	}

	sweeper := app.NewSweeper(store, m, logger, cfg.RawRetentionDays)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start retention sweeper: %v", err)
	}
	defer sweeper.Stop()

	router := app.NewRouter(handlers, &app.RouterOptions{
		Logger:        logger,
		Metrics:       m,
		EnableMetrics: cfg.EnableMetrics,
	})

	printStartupBanner(cfg)

	srv := app.NewServer(cfg, router, logger)
	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
