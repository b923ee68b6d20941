// Package errors provides unified error handling for the crosscribe service.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection so that per-backend and per-segment failures can be
// folded into results instead of aborting a whole comparison run.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Session error constructors ---

// ConflictingFragment creates a new AppError for a fragment re-submitted with
// different content at an already-occupied index.
func ConflictingFragment(sessionID string, index uint32) *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: fmt.Sprintf("Fragment %d was already submitted with different content.", index),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"session_id": sessionID, "index": index},
	}
}

// IncompleteSession creates a new AppError listing the fragment indices that
// are still missing at finalize time.
func IncompleteSession(sessionID string, missing []uint32) *AppError {
	return &AppError{
		Code: ErrCodeIncompleteSession, Message: "The session is missing fragments and cannot be finalized yet.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"session_id": sessionID, "missing_indices": missing},
	}
}

// SessionExpired creates a new AppError for a session evicted after its idle TTL.
func SessionExpired(sessionID string) *AppError {
	return &AppError{
		Code: ErrCodeSessionExpired, Message: "The upload session has expired and its fragments were discarded.",
		HTTPStatus: http.StatusGone, Retryable: false,
		Details: map[string]any{"session_id": sessionID},
	}
}

// SessionFinalizing creates a new AppError for a fragment submitted while a
// finalize is in progress.
func SessionFinalizing(sessionID string) *AppError {
	return &AppError{
		Code: ErrCodeSessionFinalizing, Message: "The session is being finalized and no longer accepts fragments.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"session_id": sessionID},
	}
}

// SessionComplete creates a new AppError for a fragment submitted after a
// successful finalize.
func SessionComplete(sessionID string) *AppError {
	return &AppError{
		Code: ErrCodeSessionComplete, Message: "The session is already finalized.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"session_id": sessionID},
	}
}

// --- Pipeline error constructors ---

// InvalidSegment creates a new AppError for a degenerate diarization segment.
func InvalidSegment(reason string, start, end float64) *AppError {
	return &AppError{
		Code: ErrCodeInvalidSegment, Message: fmt.Sprintf("Invalid segment range: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"start": start, "end": end},
	}
}

// NotProcessed creates a new AppError for a segment that was never attempted
// because the overall run deadline expired.
func NotProcessed() *AppError {
	return &AppError{
		Code: ErrCodeNotProcessed, Message: "The segment was not processed before the run deadline.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
	}
}

// --- Backend error constructors ---

// BackendTimeout creates a new AppError for a transcription call that exceeded
// its per-call deadline.
func BackendTimeout(backend string) *AppError {
	return &AppError{
		Code: ErrCodeBackendTimeout, Message: fmt.Sprintf("The %s backend did not answer within its deadline.", backend),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: false,
		Details: map[string]any{"backend": backend},
	}
}

// BackendRateLimited creates a new AppError for a backend 429 response.
func BackendRateLimited(backend string) *AppError {
	return &AppError{
		Code: ErrCodeBackendRateLimited, Message: fmt.Sprintf("The %s backend rejected the call: too many requests.", backend),
		HTTPStatus: http.StatusTooManyRequests, Retryable: false,
		Details: map[string]any{"backend": backend},
	}
}

// BackendUnsupportedFormat creates a new AppError for a backend that rejected
// the audio payload format or size.
func BackendUnsupportedFormat(backend, reason string) *AppError {
	return &AppError{
		Code: ErrCodeBackendUnsupportedFormat, Message: fmt.Sprintf("The %s backend rejected the audio payload: %s", backend, reason),
		HTTPStatus: http.StatusUnsupportedMediaType, Retryable: false,
		Details: map[string]any{"backend": backend},
	}
}

// BackendUnknown creates a new AppError for an unclassified backend failure.
func BackendUnknown(backend string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeBackendUnknown, Message: fmt.Sprintf("The %s backend failed.", backend),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"backend": backend}, Cause: cause,
	}
}

// --- Common error constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates a new AppError for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s. Please verify the service is running.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}
