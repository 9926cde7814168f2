package shared

import (
	"errors"

	"github.com/samber/oops"
)

// Domain error codes
const (
	// Generic errors (1000-1999)
	ErrCodeInvalidInput     = 1001
	ErrCodeNotFound         = 1002
	ErrCodeAlreadyExists    = 1003
	ErrCodeInvalidOperation = 1004

	// Workload specific errors (2000-2999)
	ErrCodeMissingUsername = 2001
	ErrCodeInvalidDuration = 2002
	ErrCodeInvalidDate     = 2003
	ErrCodeInvalidAction   = 2004

	// Session specific errors (3000-3999)
	ErrCodeAlreadyCancelled = 3001
)

// NewDomainError creates a new domain error using oops
func NewDomainError(code int, message string) error {
	return oops.
		Code(codeToString(code)).
		In("domain").
		With("error_code", code).
		Errorf(message)
}

// NewDomainErrorf creates a new domain error with formatted message
func NewDomainErrorf(code int, format string, args ...interface{}) error {
	return oops.
		Code(codeToString(code)).
		In("domain").
		With("error_code", code).
		Errorf(format, args...)
}

// codeToString converts int error code to string
func codeToString(code int) string {
	switch code {
	case ErrCodeInvalidInput:
		return "INVALID_INPUT"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeAlreadyExists:
		return "ALREADY_EXISTS"
	case ErrCodeInvalidOperation:
		return "INVALID_OPERATION"
	case ErrCodeMissingUsername:
		return "MISSING_USERNAME"
	case ErrCodeInvalidDuration:
		return "INVALID_DURATION"
	case ErrCodeInvalidDate:
		return "INVALID_DATE"
	case ErrCodeInvalidAction:
		return "INVALID_ACTION"
	case ErrCodeAlreadyCancelled:
		return "ALREADY_CANCELLED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// ErrorCode extracts the numeric domain error code, or 0 when absent
func ErrorCode(err error) int {
	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		if code, ok := oopsErr.Context()["error_code"].(int); ok {
			return code
		}
	}
	return 0
}

// IsValidation reports whether err is a synchronous validation rejection
func IsValidation(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeInvalidInput, ErrCodeMissingUsername, ErrCodeInvalidDuration,
		ErrCodeInvalidDate, ErrCodeInvalidAction:
		return true
	default:
		return false
	}
}

// Common domain error builders
func ErrInvalidInput(msg string) error {
	return NewDomainError(ErrCodeInvalidInput, msg)
}

func ErrNotFound(resource string) error {
	return NewDomainErrorf(ErrCodeNotFound, "%s not found", resource)
}

func ErrAlreadyExists(resource string) error {
	return NewDomainErrorf(ErrCodeAlreadyExists, "%s already exists", resource)
}
