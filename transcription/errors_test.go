package transcription

import (
	"context"
	"fmt"
	"testing"

	"github.com/kbukum/crosscribe/errors"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  errors.ErrorCode
		retryable bool
	}{
		{429, errors.ErrCodeBackendRateLimited, false},
		{400, errors.ErrCodeBackendUnsupportedFormat, false},
		{413, errors.ErrCodeBackendUnsupportedFormat, false},
		{415, errors.ErrCodeBackendUnsupportedFormat, false},
		{500, errors.ErrCodeBackendUnknown, true},
		{503, errors.ErrCodeBackendUnknown, true},
		{504, errors.ErrCodeBackendTimeout, false},
		{401, errors.ErrCodeBackendUnknown, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := ClassifyHTTPStatus("whisper", tt.status, "body")
			if err.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, err.Code)
			}
			if err.Retryable != tt.retryable {
				t.Errorf("status %d: expected retryable=%v, got %v", tt.status, tt.retryable, err.Retryable)
			}
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	if err := ClassifyTransportError("whisper", context.DeadlineExceeded); err.Code != errors.ErrCodeBackendTimeout {
		t.Errorf("deadline exceeded should classify as BACKEND_TIMEOUT, got %s", err.Code)
	}
	if err := ClassifyTransportError("whisper", fmt.Errorf("connection reset by peer")); err.Code != errors.ErrCodeConnectionFailed {
		t.Errorf("connection reset should classify as CONNECTION_FAILED, got %s", err.Code)
	}
	if err := ClassifyTransportError("whisper", fmt.Errorf("dial: %w", context.Canceled)); err.Code != errors.ErrCodeBackendTimeout {
		t.Errorf("wrapped cancellation should classify as BACKEND_TIMEOUT, got %s", err.Code)
	}
}
