package config

import (
	"fmt"

	"github.com/danghamo/workload/pkg/logger"
)

// Initialize loads configuration and sets up global logger
func Initialize() (*Config, *logger.Logger, error) {
	cfg, err := Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	loggerCfg := logger.Config{
		Level:       logger.ParseLevel(cfg.Log.Level),
		Environment: cfg.Log.Environment,
		Encoding:    cfg.Log.Encoding,
	}

	appLogger, err := logger.New(loggerCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.SetGlobalLogger(appLogger)

	fields := map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"server_port":  cfg.Server.Port,
		"redis_url":    cfg.Redis.URL,
		"log_level":    cfg.Log.Level,
		"log_encoding": cfg.Log.Encoding,
	}
	appLogger.WithFields(fields).Info("Configuration and logger initialized successfully")

	return cfg, appLogger, nil
}
