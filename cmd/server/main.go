package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hrportal/internal/app/server"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
