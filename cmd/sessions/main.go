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
	"github.com/danghamo/workload/internal/client"
	"github.com/danghamo/workload/pkg/breaker"
	"github.com/danghamo/workload/pkg/config"
	"github.com/danghamo/workload/pkg/redisx"
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

	log.Info("Starting Sessions Service",
		zap.String("version", "0.1.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("aggregator", cfg.Aggregator.BaseURL),
	)

	redisClient, err := redisx.NewClient(cfg.Redis.URL, log)
	if err != nil {
		log.Fatal("Failed to initialize Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	serverConfig := api.SessionsServerConfig{
		Server: api.ServerConfig{
			Port:         cfg.Server.Port,
			Host:         cfg.Server.Host,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ConsumerGroup: cfg.Redis.ConsumerGroup,
		Client: client.Config{
			BaseURL:        cfg.Aggregator.BaseURL,
			ConnectTimeout: cfg.Aggregator.ConnectTimeout,
			RequestTimeout: cfg.Aggregator.RequestTimeout,
			Breaker: breaker.Config{
				WindowSize:     cfg.Aggregator.Breaker.WindowSize,
				MinCalls:       cfg.Aggregator.Breaker.MinCalls,
				FailureRatePct: cfg.Aggregator.Breaker.FailureRatePct,
				OpenWait:       cfg.Aggregator.Breaker.OpenWait,
				HalfOpenCalls:  cfg.Aggregator.Breaker.HalfOpenCalls,
			},
		},
	}

	apiServer := api.NewSessionsServer(serverConfig, log, redisClient)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("Shutting down sessions service...")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		log.Error("Server error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Sessions service gracefully stopped")
}
