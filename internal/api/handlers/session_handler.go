package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/workload/internal/api/httpx"
	cqrsevents "github.com/danghamo/workload/internal/cqrs"
	"github.com/danghamo/workload/internal/domain/session"
	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/logger"
)

// EventPublisher publishes domain events onto the stream
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// SessionHandler handles training session HTTP requests. Session create and
// cancel always succeed or fail on their own logic; propagating the derived
// workload delta is best-effort and asynchronous.
type SessionHandler struct {
	logger     *logger.Logger
	repository session.Repository
	eventBus   EventPublisher
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(log *logger.Logger, repository session.Repository, eventBus EventPublisher) *SessionHandler {
	return &SessionHandler{
		logger:     log.WithComponent("session-handler"),
		repository: repository,
		eventBus:   eventBus,
	}
}

// CreateSessionRequest is the session creation payload
type CreateSessionRequest struct {
	TrainerUsername  string `json:"trainer_username"`
	TrainerFirstName string `json:"trainer_first_name"`
	TrainerLastName  string `json:"trainer_last_name"`
	TrainerActive    bool   `json:"trainer_active"`
	TraineeUsername  string `json:"trainee_username"`
	Date             string `json:"date"`
	DurationMinutes  int    `json:"duration_minutes"`
}

// CancelSessionRequest is the session cancellation payload
type CancelSessionRequest struct {
	ID string `json:"id"`
}

// HandleCreate handles POST /api/v1/session.Create
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var params CreateSessionRequest
	if err := httpx.Decode(r, &params); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := session.NewTrainingSession(
		params.TrainerUsername,
		params.TrainerFirstName,
		params.TrainerLastName,
		params.TrainerActive,
		params.TraineeUsername,
		params.Date,
		params.DurationMinutes,
	)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	err = h.repository.FindOneAndInsert(r.Context(), created.ID, func() (*session.TrainingSession, error) {
		return created, nil
	})
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	h.logger.Info("Training session created",
		zap.String("session_id", created.ID.String()),
		zap.String("trainer", created.TrainerUsername),
		zap.Int("minutes", created.DurationMinutes),
	)

	// The session is committed; delta propagation must not undo that
	h.publishSessionEvents(r.Context(), created, workload.ActionAdd)

	httpx.WriteJSON(w, http.StatusOK, created)
}

// HandleCancel handles POST /api/v1/session.Cancel
func (h *SessionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var params CancelSessionRequest
	if err := httpx.Decode(r, &params); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if params.ID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Session id is required")
		return
	}

	var cancelled *session.TrainingSession
	err := h.repository.FindOneAndUpdate(r.Context(), session.SessionID(params.ID),
		func(current *session.TrainingSession) (*session.TrainingSession, error) {
			if err := current.Cancel(); err != nil {
				return nil, err
			}
			cancelled = current
			return current, nil
		})
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	h.logger.Info("Training session cancelled",
		zap.String("session_id", cancelled.ID.String()),
		zap.String("trainer", cancelled.TrainerUsername),
	)

	h.publishSessionEvents(r.Context(), cancelled, workload.ActionRemove)

	httpx.WriteJSON(w, http.StatusOK, cancelled)
}

// HandleGet handles GET /api/v1/session.Get?id=
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Query parameter id is required")
		return
	}

	result, err := h.repository.GetByID(r.Context(), session.SessionID(id))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result == nil {
		httpx.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleListByTrainer handles GET /api/v1/session.ListByTrainer?username=
func (h *SessionHandler) HandleListByTrainer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Query parameter username is required")
		return
	}

	sessions, err := h.repository.GetByTrainer(r.Context(), username)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if sessions == nil {
		sessions = []*session.TrainingSession{}
	}

	httpx.WriteJSON(w, http.StatusOK, sessions)
}

// publishSessionEvents emits the lifecycle event and the derived workload
// delta. Publish failures are logged and swallowed: the aggregate diverges
// until reconciliation, the session transaction stands.
func (h *SessionHandler) publishSessionEvents(ctx context.Context, s *session.TrainingSession, action workload.Action) {
	now := time.Now()

	var lifecycle any
	if action == workload.ActionAdd {
		lifecycle = cqrsevents.TrainingSessionCreatedEvent{
			SessionID:       s.ID.String(),
			TrainerUsername: s.TrainerUsername,
			TraineeUsername: s.TraineeUsername,
			Date:            s.Date,
			DurationMinutes: s.DurationMinutes,
			Timestamp:       now,
		}
	} else {
		lifecycle = cqrsevents.TrainingSessionCancelledEvent{
			SessionID:       s.ID.String(),
			TrainerUsername: s.TrainerUsername,
			Date:            s.Date,
			DurationMinutes: s.DurationMinutes,
			Timestamp:       now,
		}
	}

	if err := h.eventBus.Publish(ctx, lifecycle); err != nil {
		h.logger.Error("Failed to publish session lifecycle event",
			zap.String("session_id", s.ID.String()),
			zap.Error(err),
		)
	}

	delta := s.Delta(action)
	if err := h.eventBus.Publish(ctx, cqrsevents.WorkloadDeltaRequestedEvent{
		Delta:     delta,
		Timestamp: now,
	}); err != nil {
		h.logger.Error("Failed to publish workload delta, aggregate is stale until reconciliation",
			zap.String("session_id", s.ID.String()),
			zap.String("request_id", delta.RequestID),
			zap.Error(err),
		)
	}
}
