package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thereayou/wetube/cmd/server"
	"github.com/thereayou/wetube/internal/config"
	"github.com/thereayou/wetube/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(os.Getenv("APP_ENV")).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
