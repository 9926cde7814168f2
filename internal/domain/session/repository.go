package session

import "context"

// Repository defines training session persistence with the IoC callback
// pattern so create/cancel read-modify-write cycles stay atomic per key
type Repository interface {
	// FindOneAndInsert inserts a new session with callback for initialization
	FindOneAndInsert(ctx context.Context, id SessionID, callback func() (*TrainingSession, error)) error

	// FindOneAndUpdate finds a session by ID and applies callback for atomic update
	FindOneAndUpdate(ctx context.Context, id SessionID, callback func(*TrainingSession) (*TrainingSession, error)) error

	// GetByID retrieves a session by ID (read-only); nil when absent
	GetByID(ctx context.Context, id SessionID) (*TrainingSession, error)

	// GetByTrainer retrieves all sessions for a trainer (read-only)
	GetByTrainer(ctx context.Context, trainerUsername string) ([]*TrainingSession, error)
}
