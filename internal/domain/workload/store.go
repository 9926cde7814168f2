package workload

import "context"

// Store holds the authoritative in-memory aggregate. Implementations must be
// safe for concurrent use: deltas for the same trainer serialize so no update
// is lost, deltas for different trainers proceed independently.
type Store interface {
	// Apply validates a delta and folds it into the trainer's aggregate,
	// creating the aggregate on first contact. Redelivered deltas with a
	// RequestID already seen are dropped.
	Apply(ctx context.Context, delta Delta) error

	// Get returns a point-in-time snapshot of one trainer's aggregate,
	// or nil when the trainer has never received a delta
	Get(ctx context.Context, username string) (*TrainerWorkload, error)

	// List returns per-entry consistent snapshots of all aggregates
	List(ctx context.Context) ([]*TrainerWorkload, error)
}
