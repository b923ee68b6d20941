package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Session errors
const (
	// ErrCodeConflict indicates a fragment index was re-submitted with different content.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeIncompleteSession indicates finalize was called before all fragments arrived.
	ErrCodeIncompleteSession ErrorCode = "INCOMPLETE_SESSION"
	// ErrCodeSessionExpired indicates the session was evicted after its idle TTL.
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"
	// ErrCodeSessionFinalizing indicates a fragment arrived while finalize was in progress.
	ErrCodeSessionFinalizing ErrorCode = "SESSION_FINALIZING"
	// ErrCodeSessionComplete indicates a fragment arrived after a successful finalize.
	ErrCodeSessionComplete ErrorCode = "SESSION_COMPLETE"
)

// Pipeline errors
const (
	// ErrCodeInvalidSegment indicates a degenerate diarization segment range.
	ErrCodeInvalidSegment ErrorCode = "INVALID_SEGMENT"
	// ErrCodeNotProcessed indicates a segment was skipped because the run deadline expired.
	ErrCodeNotProcessed ErrorCode = "NOT_PROCESSED"
	// ErrCodePartialRun indicates the run deadline expired with some segments unprocessed.
	ErrCodePartialRun ErrorCode = "PARTIAL_RUN"
)

// Backend errors
const (
	// ErrCodeBackendTimeout indicates a transcription call exceeded its deadline.
	ErrCodeBackendTimeout ErrorCode = "BACKEND_TIMEOUT"
	// ErrCodeBackendRateLimited indicates the backend rejected the call with 429.
	ErrCodeBackendRateLimited ErrorCode = "BACKEND_RATE_LIMITED"
	// ErrCodeBackendUnsupportedFormat indicates the backend rejected the audio payload.
	ErrCodeBackendUnsupportedFormat ErrorCode = "BACKEND_UNSUPPORTED_FORMAT"
	// ErrCodeBackendUnknown indicates an unclassified backend failure.
	ErrCodeBackendUnknown ErrorCode = "BACKEND_UNKNOWN"
)

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Resource and internal errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Retryable codes cover transient transport failures only. Backend timeouts
// are excluded: the per-call deadline is already spent when one fires.
// Rate limiting is a 4xx and is reported, not retried.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeExternalService:    true,
	ErrCodeBackendUnknown:     true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
