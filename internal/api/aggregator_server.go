package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/workload/internal/api/handlers"
	"github.com/danghamo/workload/internal/api/middleware"
	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/logger"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// AggregatorServer serves the in-memory workload aggregate over HTTP
type AggregatorServer struct {
	httpServer      *http.Server
	logger          *logger.Logger
	mux             *http.ServeMux
	store           workload.Store
	workloadHandler *handlers.WorkloadHandler
}

// NewAggregatorServer creates the aggregator HTTP server
func NewAggregatorServer(config ServerConfig, log *logger.Logger, store workload.Store) *AggregatorServer {
	mux := http.NewServeMux()
	apiLogger := log.WithComponent("aggregator-api")

	server := &AggregatorServer{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger:          apiLogger,
		mux:             mux,
		store:           store,
		workloadHandler: handlers.NewWorkloadHandler(apiLogger, store),
	}

	server.setupRoutes()
	server.setupMiddleware()

	return server
}

// setupRoutes configures the server routes
func (s *AggregatorServer) setupRoutes() {
	s.mux.HandleFunc("/health", s.healthCheckHandler)

	s.mux.HandleFunc("/api/v1/workload.Apply", s.workloadHandler.HandleApply)
	s.mux.HandleFunc("/api/v1/workload.Get", s.workloadHandler.HandleGet)
	s.mux.HandleFunc("/api/v1/workload.List", s.workloadHandler.HandleList)
}

// setupMiddleware applies middleware to all routes
func (s *AggregatorServer) setupMiddleware() {
	middlewareChain := middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RateLimit(s.logger),
		middleware.CORS(),
		middleware.Logging(s.logger),
	)

	s.httpServer.Handler = middlewareChain(s.mux)
}

// Start starts the HTTP server and blocks until the context is cancelled
func (s *AggregatorServer) Start(ctx context.Context) error {
	s.logger.Info("Starting aggregator HTTP server",
		zap.String("address", s.httpServer.Addr))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server
func (s *AggregatorServer) Shutdown() error {
	s.logger.Info("Shutting down aggregator HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("Aggregator HTTP server stopped")
	return nil
}

// GetAddr returns the server address
func (s *AggregatorServer) GetAddr() string {
	return s.httpServer.Addr
}

// healthCheckHandler handles health check requests. The aggregate lives in
// process memory, so a serving process is a healthy process.
func (s *AggregatorServer) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","checks":{"store":{"status":"up"}}}`))
}
