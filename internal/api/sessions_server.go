package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/danghamo/workload/internal/api/handlers"
	"github.com/danghamo/workload/internal/api/middleware"
	"github.com/danghamo/workload/internal/client"
	cqrshandlers "github.com/danghamo/workload/internal/cqrs/handlers"
	"github.com/danghamo/workload/internal/domain/session"
	"github.com/danghamo/workload/pkg/logger"
	"github.com/danghamo/workload/pkg/redisx"
)

// SessionsServer serves the training session API and runs the delta
// dispatch pipeline toward the aggregator
type SessionsServer struct {
	httpServer     *http.Server
	logger         *logger.Logger
	redisClient    *redisx.Client
	mux            *http.ServeMux
	sessionHandler *handlers.SessionHandler
	workloadClient *client.WorkloadClient
	// Watermill CQRS components
	eventBus       *cqrs.EventBus
	eventProcessor *cqrs.EventProcessor
	router         *message.Router
	deltaHandler   *cqrshandlers.DeltaDispatchHandler
}

// SessionsServerConfig holds the sessions server configuration
type SessionsServerConfig struct {
	Server        ServerConfig
	ConsumerGroup string
	Client        client.Config
}

// NewSessionsServer creates the sessions HTTP server and wires the
// event-driven delta dispatch behind it
func NewSessionsServer(config SessionsServerConfig, log *logger.Logger, redisClient *redisx.Client) *SessionsServer {
	mux := http.NewServeMux()
	apiLogger := log.WithComponent("sessions-api")

	sessionRepo := session.NewRedisRepository(redisClient.Client)

	workloadClient := client.New(config.Client, log)

	// Consumer group member names must be unique per process
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerGroup := config.ConsumerGroup
	if consumerGroup == "" {
		consumerGroup = fmt.Sprintf("workload-sessions-%s-%d", hostname, time.Now().UnixNano())
	}

	watermillLogger := watermill.NewStdLogger(false, false)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient.Client,
		},
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to create publisher: %v", err))
	}

	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        redisClient.Client,
			ConsumerGroup: consumerGroup,
		},
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to create subscriber: %v", err))
	}

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 5 * time.Second,
	}, watermillLogger)
	if err != nil {
		panic(fmt.Sprintf("Failed to create router: %v", err))
	}

	eventBus, err := cqrs.NewEventBusWithConfig(
		publisher,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return fmt.Sprintf("workload-events.%s", params.EventName), nil
			},
			Marshaler: cqrs.JSONMarshaler{},
			Logger:    watermillLogger,
		},
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to create event bus: %v", err))
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(
		router,
		cqrs.EventProcessorConfig{
			GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
				return fmt.Sprintf("workload-events.%s", params.EventName), nil
			},
			SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
				return subscriber, nil
			},
			Marshaler: cqrs.JSONMarshaler{},
			Logger:    watermillLogger,
		},
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to create event processor: %v", err))
	}

	deltaHandler := cqrshandlers.NewDeltaDispatchHandler(workloadClient, apiLogger)

	server := &SessionsServer{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
			Handler:      mux,
			ReadTimeout:  config.Server.ReadTimeout,
			WriteTimeout: config.Server.WriteTimeout,
			IdleTimeout:  config.Server.IdleTimeout,
		},
		logger:         apiLogger,
		redisClient:    redisClient,
		mux:            mux,
		sessionHandler: handlers.NewSessionHandler(apiLogger, sessionRepo, eventBus),
		workloadClient: workloadClient,
		eventBus:       eventBus,
		eventProcessor: eventProcessor,
		router:         router,
		deltaHandler:   deltaHandler,
	}

	err = eventProcessor.AddHandlers(
		cqrs.NewEventHandler("WorkloadDeltaRequestedEvent", deltaHandler.HandleWorkloadDeltaRequested),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to register event handlers: %v", err))
	}

	server.setupRoutes()
	server.setupMiddleware()

	return server
}

// setupRoutes configures the server routes
func (s *SessionsServer) setupRoutes() {
	s.mux.HandleFunc("/health", s.healthCheckHandler)

	s.mux.HandleFunc("/api/v1/session.Create", s.sessionHandler.HandleCreate)
	s.mux.HandleFunc("/api/v1/session.Cancel", s.sessionHandler.HandleCancel)
	s.mux.HandleFunc("/api/v1/session.Get", s.sessionHandler.HandleGet)
	s.mux.HandleFunc("/api/v1/session.ListByTrainer", s.sessionHandler.HandleListByTrainer)
}

// setupMiddleware applies middleware to all routes
func (s *SessionsServer) setupMiddleware() {
	middlewareChain := middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RateLimit(s.logger),
		middleware.CORS(),
		middleware.Logging(s.logger),
	)

	s.httpServer.Handler = middlewareChain(s.mux)
}

// Start starts the HTTP server and the delta dispatch router, blocking
// until the context is cancelled
func (s *SessionsServer) Start(ctx context.Context) error {
	s.logger.Info("Starting sessions HTTP server",
		zap.String("address", s.httpServer.Addr))

	go func() {
		if err := s.router.Run(ctx); err != nil {
			s.logger.Error("Watermill router error", zap.Error(err))
		}
	}()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server
func (s *SessionsServer) Shutdown() error {
	s.logger.Info("Shutting down sessions HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown error", zap.Error(err))
		return err
	}

	if s.router != nil {
		s.logger.Info("Closing Watermill router")
		if err := s.router.Close(); err != nil {
			s.logger.Error("Router shutdown error", zap.Error(err))
			return err
		}
	}

	s.logger.Info("Sessions HTTP server stopped")
	return nil
}

// GetAddr returns the server address
func (s *SessionsServer) GetAddr() string {
	return s.httpServer.Addr
}

// healthCheckHandler handles health check requests. Redis down means
// unhealthy; an unreachable aggregator is reported but does not fail the
// check, sessions keep working without it.
func (s *SessionsServer) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.redisClient.HealthCheck(r.Context()); err != nil {
		s.logger.Error("Redis health check failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unhealthy","checks":{"redis":{"status":"down","error":"` + err.Error() + `"}}}`))
		return
	}

	aggregatorStatus := "up"
	if !s.workloadClient.Available(r.Context()) {
		aggregatorStatus = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","checks":{"redis":{"status":"up"},"aggregator":{"status":"` +
		aggregatorStatus + `","breaker":"` + s.workloadClient.BreakerState().String() + `"}}}`))
}
