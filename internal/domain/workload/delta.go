package workload

import (
	"time"

	"github.com/danghamo/workload/internal/domain/shared"
)

// Action tells whether a delta adds or removes training duration
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionRemove Action = "REMOVE"
)

// String returns string representation
func (a Action) String() string {
	return string(a)
}

// IsValid checks if the action is a known value
func (a Action) IsValid() bool {
	return a == ActionAdd || a == ActionRemove
}

// DateLayout is the wire format of TrainingDate
const DateLayout = "2006-01-02"

// Delta is a transient request to change a trainer's accumulated duration
// for the calendar month of TrainingDate. It is never persisted.
//
// RequestID deduplicates redelivered deltas at the aggregator; deltas
// without one are applied unconditionally.
type Delta struct {
	RequestID       string `json:"requestId,omitempty"`
	Username        string `json:"username"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	IsActive        bool   `json:"isActive"`
	TrainingDate    string `json:"trainingDate"`
	DurationMinutes int    `json:"trainingDurationMinutes"`
	Action          Action `json:"actionType"`
}

// Validate rejects structurally malformed deltas before they reach the store
func (d Delta) Validate() error {
	if d.Username == "" {
		return shared.NewDomainError(shared.ErrCodeMissingUsername, "Delta username is required")
	}

	if d.DurationMinutes <= 0 {
		return shared.NewDomainErrorf(shared.ErrCodeInvalidDuration,
			"Training duration must be positive, got %d", d.DurationMinutes)
	}

	if _, err := time.Parse(DateLayout, d.TrainingDate); err != nil {
		return shared.NewDomainErrorf(shared.ErrCodeInvalidDate,
			"Training date %q is not a valid ISO date", d.TrainingDate)
	}

	if !d.Action.IsValid() {
		return shared.NewDomainErrorf(shared.ErrCodeInvalidAction,
			"Action type must be ADD or REMOVE, got %q", d.Action)
	}

	return nil
}

// Bucket resolves the (year, month) accumulator cell the delta targets
func (d Delta) Bucket() (year, month int, err error) {
	t, err := time.Parse(DateLayout, d.TrainingDate)
	if err != nil {
		return 0, 0, shared.NewDomainErrorf(shared.ErrCodeInvalidDate,
			"Training date %q is not a valid ISO date", d.TrainingDate)
	}
	return t.Year(), int(t.Month()), nil
}

// mustBucket is Bucket for deltas that already passed Validate
func (d Delta) mustBucket() (year, month int) {
	t, _ := time.Parse(DateLayout, d.TrainingDate)
	return t.Year(), int(t.Month())
}

// signedDuration maps the action to a signed minute count
func (d Delta) signedDuration() int {
	if d.Action == ActionRemove {
		return -d.DurationMinutes
	}
	return d.DurationMinutes
}
