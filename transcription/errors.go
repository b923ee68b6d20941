package transcription

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/kbukum/crosscribe/errors"
)

// ClassifyHTTPStatus maps a backend HTTP status onto the shared error
// taxonomy. 5xx responses come back retryable, 4xx never do.
func ClassifyHTTPStatus(backend string, status int, body string) *errors.AppError {
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return errors.BackendTimeout(backend)
	case status == http.StatusTooManyRequests:
		return errors.BackendRateLimited(backend)
	case status == http.StatusBadRequest,
		status == http.StatusRequestEntityTooLarge,
		status == http.StatusUnsupportedMediaType,
		status == http.StatusUnprocessableEntity:
		return errors.BackendUnsupportedFormat(backend, summarize(body))
	case status >= 500:
		return errors.BackendUnknown(backend, fmt.Errorf("status %d: %s", status, summarize(body)))
	default:
		err := errors.BackendUnknown(backend, fmt.Errorf("status %d: %s", status, summarize(body)))
		err.Retryable = false
		return err
	}
}

// ClassifyTransportError maps a transport-level failure (connection refused,
// reset, DNS) or a blown deadline onto the taxonomy.
func ClassifyTransportError(backend string, err error) *errors.AppError {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.BackendTimeout(backend).WithCause(err)
	}
	return errors.ConnectionFailed(backend).WithCause(err)
}

func summarize(body string) string {
	if len(body) > 200 {
		return body[:200] + "..."
	}
	return body
}
