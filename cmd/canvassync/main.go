package main

import (
	"context"
	"os"

	"CanvasNotionSync/internal/app"
	"CanvasNotionSync/internal/config"
	"CanvasNotionSync/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("sync stopped", "error", err)
		os.Exit(1)
	}
}
