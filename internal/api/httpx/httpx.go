package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danghamo/workload/internal/domain/shared"
)

// ErrorResponse is the uniform error envelope for all endpoints
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// Decode reads and unmarshals a JSON request body
func Decode(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse request body: %w", err)
	}

	return nil
}

// WriteJSON sends a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Encode failures past this point surface as a truncated body; the
	// logging middleware already recorded the status
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError sends the uniform error envelope
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	})
}

// WriteDomainError maps a domain error onto the envelope: validation
// rejections are 400, missing resources 404, duplicates 409, the rest 500
func WriteDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case shared.IsValidation(err):
		status = http.StatusBadRequest
	case shared.ErrorCode(err) == shared.ErrCodeNotFound:
		status = http.StatusNotFound
	case shared.ErrorCode(err) == shared.ErrCodeAlreadyExists:
		status = http.StatusConflict
	case shared.ErrorCode(err) == shared.ErrCodeAlreadyCancelled:
		status = http.StatusConflict
	}

	WriteError(w, status, err.Error())
}
