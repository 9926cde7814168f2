package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danghamo/workload/internal/api/httpx"
	"github.com/danghamo/workload/internal/domain/workload"
	"github.com/danghamo/workload/pkg/logger"
)

func newWorkloadHandler(t *testing.T) (*WorkloadHandler, *workload.MemoryStore) {
	t.Helper()
	store := workload.NewMemoryStore(logger.NewDefault())
	return NewWorkloadHandler(logger.NewDefault(), store), store
}

func applyRequest(t *testing.T, delta workload.Delta) *http.Request {
	t.Helper()
	body, err := json.Marshal(delta)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/v1/workload.Apply", bytes.NewReader(body))
}

func TestWorkloadHandler_ApplyThenGet(t *testing.T) {
	h, _ := newWorkloadHandler(t)

	rec := httptest.NewRecorder()
	h.HandleApply(rec, applyRequest(t, workload.Delta{
		Username:        "jane.smith",
		FirstName:       "Jane",
		LastName:        "Smith",
		IsActive:        true,
		TrainingDate:    "2026-02-15",
		DurationMinutes: 60,
		Action:          workload.ActionAdd,
	}))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workload.Get?username=jane.smith", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got workload.TrainerWorkload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "jane.smith", got.Username)
	assert.Equal(t, 60, got.Duration(2026, 2))
}

func TestWorkloadHandler_ApplyValidationEnvelope(t *testing.T) {
	h, store := newWorkloadHandler(t)

	rec := httptest.NewRecorder()
	h.HandleApply(rec, applyRequest(t, workload.Delta{
		Username:        "jane.smith",
		TrainingDate:    "2026-02-15",
		DurationMinutes: -30,
		Action:          workload.ActionAdd,
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusBadRequest, envelope.Status)
	assert.Equal(t, "Bad Request", envelope.Error)
	assert.NotEmpty(t, envelope.Message)
	assert.False(t, envelope.Timestamp.IsZero())

	// The rejected delta must not create an aggregate
	got, err := store.Get(context.Background(), "jane.smith")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorkloadHandler_ApplyMalformedBody(t *testing.T) {
	h, _ := newWorkloadHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workload.Apply", bytes.NewReader([]byte("{not json")))
	h.HandleApply(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkloadHandler_GetUnknownTrainer(t *testing.T) {
	h, _ := newWorkloadHandler(t)

	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workload.Get?username=nobody", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var envelope httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusNotFound, envelope.Status)
}

func TestWorkloadHandler_GetRequiresUsername(t *testing.T) {
	h, _ := newWorkloadHandler(t)

	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workload.Get", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkloadHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newWorkloadHandler(t)

	rec := httptest.NewRecorder()
	h.HandleApply(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workload.Apply", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodPost, "/api/v1/workload.Get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWorkloadHandler_List(t *testing.T) {
	h, _ := newWorkloadHandler(t)

	for _, username := range []string{"zed.rook", "amy.pond"} {
		rec := httptest.NewRecorder()
		h.HandleApply(rec, applyRequest(t, workload.Delta{
			Username:        username,
			TrainingDate:    "2026-03-01",
			DurationMinutes: 45,
			Action:          workload.ActionAdd,
		}))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workload.List", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*workload.TrainerWorkload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "amy.pond", got[0].Username)
	assert.Equal(t, "zed.rook", got[1].Username)
}
