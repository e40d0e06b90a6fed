package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"ecomsync/internal/activecampaign"
	"ecomsync/internal/cache"
	"ecomsync/internal/cofe"
	"ecomsync/internal/config"
	"ecomsync/internal/database"
	"ecomsync/internal/ecom"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
	"ecomsync/internal/woocommerce"
	"ecomsync/internal/worker"
	"ecomsync/internal/worker/processors"
	"ecomsync/internal/worker/processors/export"
	"ecomsync/internal/worker/processors/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logger.New(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	features, err := cache.New(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal("Failed to set up feature cache: %v", err)
	}

	settings := cfg.Settings()
	store := woocommerce.NewClient(cfg.StoreURL, cfg.StoreConsumerKey, cfg.StoreConsumerSecret, logger)
	platform := activecampaign.NewClient(cfg.ACAPIURL, cfg.ACAPIKey, logger)
	gate := activecampaign.NewFeatureGate(platform, features, cfg.FeatureCacheTTL, logger)
	serializer := literal.NewSerializer(logger)

	products := ecom.NewProductMapper(store, settings, logger)
	processor := processors.NewEventProcessor(
		ecom.NewOrderMapper(products, settings, logger),
		ecom.NewCustomerMapper(settings),
		cofe.NewMapper(store, store, settings, logger),
		validation.New(logger),
		export.New(platform, gate, db, serializer, logger),
		logger,
	)

	w := worker.New(cfg, logger, processor)

	logger.Info("Starting worker...")
	if err := w.Start(ctx); err != nil {
		logger.Error("Worker stopped: %v", err)
	}

	logger.Info("Shutting down worker...")
	w.Stop()
}
