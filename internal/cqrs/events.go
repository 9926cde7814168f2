package cqrs

import (
	"time"

	"github.com/danghamo/workload/internal/domain/workload"
)

// TrainingSessionCreatedEvent is published when a training session is recorded
type TrainingSessionCreatedEvent struct {
	SessionID       string    `json:"session_id"`
	TrainerUsername string    `json:"trainer_username"`
	TraineeUsername string    `json:"trainee_username"`
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Timestamp       time.Time `json:"timestamp"`
}

// TrainingSessionCancelledEvent is published when a training session is cancelled
type TrainingSessionCancelledEvent struct {
	SessionID       string    `json:"session_id"`
	TrainerUsername string    `json:"trainer_username"`
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Timestamp       time.Time `json:"timestamp"`
}

// WorkloadDeltaRequestedEvent carries a derived delta toward the aggregator.
// Delivery through the stream is at-least-once; the delta's RequestID lets
// the aggregator drop redeliveries.
type WorkloadDeltaRequestedEvent struct {
	Delta     workload.Delta `json:"delta"`
	Timestamp time.Time      `json:"timestamp"`
}
