package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danghamo/workload/internal/client"
	cqrsevents "github.com/danghamo/workload/internal/cqrs"
	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/logger"
)

// stubSender scripts the resilient client
type stubSender struct {
	result client.Result
	err    error
	sent   []workload.Delta
}

func (s *stubSender) SendDelta(ctx context.Context, delta workload.Delta) (client.Result, error) {
	s.sent = append(s.sent, delta)
	return s.result, s.err
}

func testEvent() *cqrsevents.WorkloadDeltaRequestedEvent {
	return &cqrsevents.WorkloadDeltaRequestedEvent{
		Delta: workload.Delta{
			RequestID:       "req-1",
			Username:        "jane.smith",
			TrainingDate:    "2026-02-15",
			DurationMinutes: 60,
			Action:          workload.ActionAdd,
		},
		Timestamp: time.Now(),
	}
}

func TestDeltaDispatchHandler_Applied(t *testing.T) {
	sender := &stubSender{result: client.ResultApplied}
	h := NewDeltaDispatchHandler(sender, logger.NewDefault())

	err := h.HandleWorkloadDeltaRequested(context.Background(), testEvent())
	assert.NoError(t, err)
	assert.Len(t, sender.sent, 1)
	assert.Equal(t, "jane.smith", sender.sent[0].Username)
}

func TestDeltaDispatchHandler_NotAppliedStillAcks(t *testing.T) {
	sender := &stubSender{result: client.ResultNotApplied}
	h := NewDeltaDispatchHandler(sender, logger.NewDefault())

	err := h.HandleWorkloadDeltaRequested(context.Background(), testEvent())
	assert.NoError(t, err, "fallback outcome must ack, not redeliver forever")
}

func TestDeltaDispatchHandler_RejectionStillAcks(t *testing.T) {
	sender := &stubSender{result: client.ResultNotApplied, err: errors.New("aggregator rejected delta: 400 Bad Request")}
	h := NewDeltaDispatchHandler(sender, logger.NewDefault())

	err := h.HandleWorkloadDeltaRequested(context.Background(), testEvent())
	assert.NoError(t, err, "malformed delta will never succeed on redelivery")
}
