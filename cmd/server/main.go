package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/preetsinghmakkar/mentorly/internal/app"
	"github.com/preetsinghmakkar/mentorly/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	logger.Info().
		Str("environment", cfg.Environment).
		Str("store", cfg.StoreDriver).
		Msg("Starting mentorly")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialise application")
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with error")
	}
	logger.Info().Msg("Server stopped")
}
