package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/danghamo/workload/internal/client"
	cqrsevents "github.com/danghamo/workload/internal/cqrs"
	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/logger"
)

// DeltaSender is the resilient call into the aggregator
type DeltaSender interface {
	SendDelta(ctx context.Context, delta workload.Delta) (client.Result, error)
}

// DeltaDispatchHandler consumes requested deltas from the stream and pushes
// them through the resilient client. Messages are always acked: a delta the
// aggregator could not take is logged and given up on, so it never blocks
// the stream and never fails the session transaction that produced it.
type DeltaDispatchHandler struct {
	sender DeltaSender
	logger *logger.Logger
}

// NewDeltaDispatchHandler creates a new delta dispatch handler
func NewDeltaDispatchHandler(sender DeltaSender, log *logger.Logger) *DeltaDispatchHandler {
	return &DeltaDispatchHandler{
		sender: sender,
		logger: log.WithComponent("delta-dispatch-handler"),
	}
}

// HandleWorkloadDeltaRequested handles WorkloadDeltaRequestedEvent
func (h *DeltaDispatchHandler) HandleWorkloadDeltaRequested(ctx context.Context, event *cqrsevents.WorkloadDeltaRequestedEvent) error {
	result, err := h.sender.SendDelta(ctx, event.Delta)
	if err != nil {
		// A rejected delta is malformed and will never succeed on
		// redelivery; surface it to operators and move on
		h.logger.Error("Aggregator rejected workload delta",
			zap.String("request_id", event.Delta.RequestID),
			zap.String("trainer", event.Delta.Username),
			zap.Error(err),
		)
		return nil
	}

	if result == client.ResultNotApplied {
		h.logger.Warn("Workload delta dropped by fallback",
			zap.String("request_id", event.Delta.RequestID),
			zap.String("trainer", event.Delta.Username),
		)
		return nil
	}

	h.logger.Debug("Workload delta dispatched",
		zap.String("request_id", event.Delta.RequestID),
		zap.String("trainer", event.Delta.Username),
	)

	return nil
}
