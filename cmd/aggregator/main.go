package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/workload/internal/api"
	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/config"
)

func main() {
	// Initialize configuration and logger
	cfg, log, err := config.Initialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Ensure logger is flushed on exit
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Workload Aggregator",
		zap.String("version", "0.1.0"),
		zap.String("environment", cfg.Server.Environment),
	)

	store := workload.NewMemoryStore(log)

	serverConfig := api.ServerConfig{
		Port:         cfg.Server.Port,
		Host:         cfg.Server.Host,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	apiServer := api.NewAggregatorServer(serverConfig, log, store)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("Shutting down aggregator...")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		log.Error("Server error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Aggregator gracefully stopped")
}
