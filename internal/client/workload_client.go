// Package client delivers workload deltas to the aggregator service while
// shielding the caller's own transaction from aggregator unavailability.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/breaker"
	"github.com/danghamo/workload/pkg/logger"
)

// Result tells the caller whether the delta reached the aggregator.
// NotApplied means the aggregate is stale until a later delivery or
// reconciliation; the caller's own operation proceeds either way.
type Result string

const (
	ResultApplied    Result = "applied"
	ResultNotApplied Result = "not_applied"
)

// applyPath is the aggregator's delta endpoint
const applyPath = "/api/v1/workload.Apply"

// Config holds the caller-side tuning for the resilient call
type Config struct {
	BaseURL        string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Breaker        breaker.Config
}

// WorkloadClient wraps the network call to the aggregator in a circuit
// breaker with a swallow-and-continue fallback
type WorkloadClient struct {
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker
	logger  *logger.Logger
}

// New creates a resilient workload client
func New(cfg Config, log *logger.Logger) *WorkloadClient {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}

	return &WorkloadClient{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
			},
		},
		breaker: breaker.New(cfg.Breaker),
		logger:  log.WithComponent("workload-client"),
	}
}

// SendDelta delivers a delta to the aggregator. Availability problems never
// surface as errors: the breaker records them and the fallback reports
// NotApplied so the caller's transaction completes regardless. The returned
// error is non-nil only when the aggregator rejected the delta as malformed,
// which is a caller bug, not an availability event.
func (c *WorkloadClient) SendDelta(ctx context.Context, delta workload.Delta) (Result, error) {
	if !c.breaker.Allow() {
		return c.fallback(delta, "circuit breaker open"), nil
	}

	body, err := json.Marshal(delta)
	if err != nil {
		c.breaker.Record(true) // marshalling says nothing about aggregator health
		return ResultNotApplied, fmt.Errorf("failed to serialize delta: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+applyPath, bytes.NewReader(body))
	if err != nil {
		c.breaker.Record(true)
		return ResultNotApplied, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.Record(false)
		return c.fallback(delta, err.Error()), nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.breaker.Record(true)
		c.logger.Debug("Workload delta applied",
			zap.String("request_id", delta.RequestID),
			zap.String("trainer", delta.Username),
		)
		return ResultApplied, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The aggregator answered, so it is healthy; the delta itself
		// was rejected
		c.breaker.Record(true)
		return ResultNotApplied, fmt.Errorf("aggregator rejected delta: %s", resp.Status)

	default:
		c.breaker.Record(false)
		return c.fallback(delta, resp.Status), nil
	}
}

// Available reports whether the aggregator's health endpoint answers
func (c *WorkloadClient) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// BreakerState exposes the breaker state for health reporting
func (c *WorkloadClient) BreakerState() breaker.State {
	return c.breaker.State()
}

// fallback is the degraded-but-safe path: the delta is dropped, the
// divergence is logged loudly, and the caller continues
func (c *WorkloadClient) fallback(delta workload.Delta, reason string) Result {
	log := c.logger.WithTrainer(delta.Username).WithRequestID(delta.RequestID)
	log.Warn("Workload delta not applied, aggregate is stale until reconciliation",
		zap.String("action", delta.Action.String()),
		zap.Int("minutes", delta.DurationMinutes),
		zap.String("reason", reason),
		zap.String("breaker_state", c.breaker.State().String()),
	)
	return ResultNotApplied
}
