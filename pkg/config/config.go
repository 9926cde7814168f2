package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration shared by both services
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Host        string `mapstructure:"host"`
	Environment string `mapstructure:"environment"`
}

// RedisConfig holds Redis-related configuration
type RedisConfig struct {
	URL           string `mapstructure:"url"`
	ConsumerGroup string `mapstructure:"consumer_group"`
}

// AggregatorConfig holds the caller-side configuration for the resilient
// workload update client: endpoint, call timeouts, and breaker tuning.
type AggregatorConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig holds circuit breaker tuning
type BreakerConfig struct {
	WindowSize     int           `mapstructure:"window_size"`
	MinCalls       int           `mapstructure:"min_calls"`
	FailureRatePct int           `mapstructure:"failure_rate_pct"`
	OpenWait       time.Duration `mapstructure:"open_wait"`
	HalfOpenCalls  int           `mapstructure:"half_open_calls"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
	Encoding    string `mapstructure:"encoding"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/workload")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file is optional; env vars and defaults carry the rest
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.environment", "development")

	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.consumer_group", "workload-sessions")

	viper.SetDefault("aggregator.base_url", "http://localhost:8081")
	viper.SetDefault("aggregator.connect_timeout", "5s")
	viper.SetDefault("aggregator.request_timeout", "5s")
	viper.SetDefault("aggregator.breaker.window_size", 10)
	viper.SetDefault("aggregator.breaker.min_calls", 5)
	viper.SetDefault("aggregator.breaker.failure_rate_pct", 50)
	viper.SetDefault("aggregator.breaker.open_wait", "5s")
	viper.SetDefault("aggregator.breaker.half_open_calls", 3)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.environment", "development")
	viper.SetDefault("log.encoding", "console")
}

// validateConfig validates the loaded configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if cfg.Redis.URL == "" {
		return fmt.Errorf("redis url cannot be empty")
	}

	if cfg.Aggregator.BaseURL == "" {
		return fmt.Errorf("aggregator base url cannot be empty")
	}

	if cfg.Aggregator.ConnectTimeout <= 0 || cfg.Aggregator.RequestTimeout <= 0 {
		return fmt.Errorf("aggregator timeouts must be positive")
	}

	b := cfg.Aggregator.Breaker
	if b.WindowSize < 1 {
		return fmt.Errorf("breaker window size must be at least 1")
	}
	if b.MinCalls < 1 || b.MinCalls > b.WindowSize {
		return fmt.Errorf("breaker min calls must be between 1 and the window size")
	}
	if b.FailureRatePct < 1 || b.FailureRatePct > 100 {
		return fmt.Errorf("breaker failure rate must be between 1 and 100 percent")
	}
	if b.OpenWait <= 0 {
		return fmt.Errorf("breaker open wait must be positive")
	}
	if b.HalfOpenCalls < 1 {
		return fmt.Errorf("breaker half-open call count must be at least 1")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.Log.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}

	validEncodings := []string{"json", "console"}
	if !contains(validEncodings, cfg.Log.Encoding) {
		return fmt.Errorf("invalid log encoding: %s", cfg.Log.Encoding)
	}

	return nil
}

// GetServerAddr returns the server address in host:port format
func (s *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction returns true if the environment is production
func (s *ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
