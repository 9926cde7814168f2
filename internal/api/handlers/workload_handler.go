package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/danghamo/workload/internal/api/httpx"
	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/logger"
)

// WorkloadHandler handles workload aggregate HTTP requests
type WorkloadHandler struct {
	logger *logger.Logger
	store  workload.Store
}

// NewWorkloadHandler creates a new workload handler
func NewWorkloadHandler(log *logger.Logger, store workload.Store) *WorkloadHandler {
	return &WorkloadHandler{
		logger: log.WithComponent("workload-handler"),
		store:  store,
	}
}

// HandleApply handles POST /api/v1/workload.Apply
func (h *WorkloadHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var delta workload.Delta
	if err := httpx.Decode(r, &delta); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Apply(r.Context(), delta); err != nil {
		h.logger.Warn("Delta rejected",
			zap.String("trainer", delta.Username),
			zap.Error(err),
		)
		httpx.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /api/v1/workload.Get?username=
func (h *WorkloadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Query parameter username is required")
		return
	}

	result, err := h.store.Get(r.Context(), username)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result == nil {
		httpx.WriteError(w, http.StatusNotFound, "Trainer workload not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleList handles GET /api/v1/workload.List
func (h *WorkloadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	result, err := h.store.List(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}
