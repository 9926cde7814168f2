package session

import (
	"time"

	"github.com/danghamo/workload/internal/domain/shared"
	"github.com/danghamo/workload/internal/domain/workload"
)

// SessionID represents a unique training session identifier
type SessionID shared.ID

// NewSessionID creates a new session ID
func NewSessionID() SessionID {
	return SessionID(shared.NewID())
}

// String returns string representation
func (id SessionID) String() string {
	return string(id)
}

// TrainingSession is the authoritative record of one scheduled training.
// The workload aggregate is derived from it and rebuildable from it.
type TrainingSession struct {
	ID               SessionID `json:"id"`
	TrainerUsername  string    `json:"trainer_username"`
	TrainerFirstName string    `json:"trainer_first_name"`
	TrainerLastName  string    `json:"trainer_last_name"`
	TrainerActive    bool      `json:"trainer_active"`
	TraineeUsername  string    `json:"trainee_username"`
	Date             string    `json:"date"` // ISO date, resolves the workload bucket
	DurationMinutes  int       `json:"duration_minutes"`
	Cancelled        bool      `json:"cancelled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewTrainingSession creates a validated training session
func NewTrainingSession(trainerUsername, trainerFirstName, trainerLastName string,
	trainerActive bool, traineeUsername, date string, durationMinutes int) (*TrainingSession, error) {

	if trainerUsername == "" {
		return nil, shared.NewDomainError(shared.ErrCodeMissingUsername, "Trainer username is required")
	}
	if traineeUsername == "" {
		return nil, shared.ErrInvalidInput("Trainee username is required")
	}
	if durationMinutes <= 0 {
		return nil, shared.NewDomainErrorf(shared.ErrCodeInvalidDuration,
			"Session duration must be positive, got %d", durationMinutes)
	}
	if _, err := time.Parse(workload.DateLayout, date); err != nil {
		return nil, shared.NewDomainErrorf(shared.ErrCodeInvalidDate,
			"Session date %q is not a valid ISO date", date)
	}

	now := time.Now()

	return &TrainingSession{
		ID:               NewSessionID(),
		TrainerUsername:  trainerUsername,
		TrainerFirstName: trainerFirstName,
		TrainerLastName:  trainerLastName,
		TrainerActive:    trainerActive,
		TraineeUsername:  traineeUsername,
		Date:             date,
		DurationMinutes:  durationMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Cancel marks the session cancelled; cancelling twice is rejected so the
// REMOVE delta is derived at most once
func (s *TrainingSession) Cancel() error {
	if s.Cancelled {
		return shared.NewDomainError(shared.ErrCodeAlreadyCancelled, "Session is already cancelled")
	}

	s.Cancelled = true
	s.UpdatedAt = time.Now()

	return nil
}

// Delta derives the workload delta for this session with a fresh request ID.
// ADD on creation, REMOVE on cancellation.
func (s *TrainingSession) Delta(action workload.Action) workload.Delta {
	return workload.Delta{
		RequestID:       shared.NewID().String(),
		Username:        s.TrainerUsername,
		FirstName:       s.TrainerFirstName,
		LastName:        s.TrainerLastName,
		IsActive:        s.TrainerActive,
		TrainingDate:    s.Date,
		DurationMinutes: s.DurationMinutes,
		Action:          action,
	}
}
