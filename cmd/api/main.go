package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomsync/internal/api"
	"ecomsync/internal/cofe"
	"ecomsync/internal/config"
	"ecomsync/internal/database"
	"ecomsync/internal/ecom"
	"ecomsync/internal/events"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
	"ecomsync/internal/woocommerce"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logger.New(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	publisher := events.NewPublisher(cfg.Brokers(), cfg.KafkaTopic, logger)
	defer publisher.Close()

	settings := cfg.Settings()
	store := woocommerce.NewClient(cfg.StoreURL, cfg.StoreConsumerKey, cfg.StoreConsumerSecret, logger)

	server := api.New(cfg, logger, api.Dependencies{
		DB:         db,
		Publisher:  publisher,
		Catalog:    woocommerce.NewConnector(store, logger),
		Products:   ecom.NewProductMapper(store, settings, logger),
		CofeMapper: cofe.NewMapper(store, store, settings, logger),
		Serializer: literal.NewSerializer(logger),
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
