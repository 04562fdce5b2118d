package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	clts "hlwatch/clients"
	"hlwatch/config"
	"hlwatch/internal/app"
)

func main() {
	// Best effort; production deployments set real env vars
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load config from environment variables
	cfg := config.Load()
	logger.Info("starting watcher", zap.Bool("isProd", cfg.IsProd))

	if result := cfg.Validate(); !result.Valid {
		logger.Fatal("invalid configuration", zap.Error(result.Err()))
	}

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(logger, cfg, clients)
	runner.Run(ctx)
}
