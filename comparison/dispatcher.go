package comparison

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/provider"
	"github.com/kbukum/crosscribe/resilience"
	"github.com/kbukum/crosscribe/transcription"
)

// DispatcherConfig configures the per-backend fan-out.
type DispatcherConfig struct {
	// CallTimeout bounds each individual transcription call.
	CallTimeout time.Duration
	// MaxClipBytes caps the clip payload size sent to backends.
	// Larger clips fail without calling any backend. Zero disables the cap.
	MaxClipBytes int64
}

// ApplyDefaults fills zero values with defaults.
func (c *DispatcherConfig) ApplyDefaults() {
	if c.CallTimeout <= 0 {
		c.CallTimeout = 30 * time.Second
	}
}

// Dispatcher fans one audio clip out to several transcription backends
// concurrently and joins the results. One backend's failure or slowness never
// affects the others.
type Dispatcher struct {
	backends *provider.Registry[transcription.Provider]
	cfg      DispatcherConfig
	metrics  *Metrics
	log      *logger.Logger
}

// NewDispatcher creates a Dispatcher over the given backend registry.
func NewDispatcher(backends *provider.Registry[transcription.Provider], cfg DispatcherConfig, metrics *Metrics, log *logger.Logger) *Dispatcher {
	cfg.ApplyDefaults()
	return &Dispatcher{
		backends: backends,
		cfg:      cfg,
		metrics:  metrics,
		log:      log.WithComponent("dispatcher"),
	}
}

// TranscribeAll sends the clip to every named backend concurrently and
// returns once all calls have completed or timed out. The returned map has
// one entry per requested backend, always.
func (d *Dispatcher) TranscribeAll(ctx context.Context, clipPath string, names []string, req transcription.TranscriptionRequest) map[string]Attempt {
	if oversized, size := d.clipOversized(clipPath); oversized {
		out := make(map[string]Attempt, len(names))
		for _, name := range names {
			out[name] = failedAttempt(name, errors.BackendUnsupportedFormat(name,
				fmt.Sprintf("clip payload %d bytes exceeds limit %d", size, d.cfg.MaxClipBytes)), 0)
		}
		return out
	}

	req.AudioPath = clipPath

	attempts := make([]Attempt, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			attempts[i] = d.transcribeOne(ctx, name, req)
		}(i, name)
	}
	wg.Wait()

	out := make(map[string]Attempt, len(names))
	for i, name := range names {
		out[name] = attempts[i]
	}
	return out
}

// transcribeOne runs a single backend call with its own timeout and at most
// one retry on transient errors.
func (d *Dispatcher) transcribeOne(ctx context.Context, name string, req transcription.TranscriptionRequest) Attempt {
	backend, ok := d.backends.Get(name)
	if !ok {
		return failedAttempt(name, errors.NotFound("backend", name), 0)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	defer cancel()

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: 250 * time.Millisecond,
		RetryIf: func(err error) bool {
			appErr, ok := errors.AsAppError(err)
			return ok && appErr.Retryable
		},
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			d.log.Warn("retrying backend call", logger.Fields(
				logger.FieldBackend, name,
				"attempt", attempt,
				logger.FieldError, err.Error(),
			))
		},
	}

	start := time.Now()
	resp, err := resilience.Retry(callCtx, retryCfg, func() (*transcription.TranscriptionResponse, error) {
		return backend.Transcribe(callCtx, req)
	})
	elapsed := time.Since(start)

	if err != nil {
		attempt := failedAttempt(name, err, elapsed.Milliseconds())
		d.metrics.RecordAttempt(ctx, name, attempt.Status, elapsed)
		d.log.Warn("backend call failed", logger.Fields(
			logger.FieldBackend, name,
			logger.FieldStatus, string(attempt.Code),
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return attempt
	}

	d.metrics.RecordAttempt(ctx, name, AttemptOK, elapsed)
	return Attempt{
		Backend:          name,
		Status:           AttemptOK,
		Text:             resp.Text,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Usage:            resp.Usage,
	}
}

// clipOversized reports whether the clip exceeds the payload cap.
func (d *Dispatcher) clipOversized(clipPath string) (bool, int64) {
	if d.cfg.MaxClipBytes <= 0 {
		return false, 0
	}
	info, err := os.Stat(clipPath)
	if err != nil {
		return false, 0
	}
	return info.Size() > d.cfg.MaxClipBytes, info.Size()
}

// failedAttempt folds an error into an Attempt entry. Retry exhaustion with a
// plain context error means the call deadline expired mid-flight.
func failedAttempt(name string, err error, elapsedMs int64) Attempt {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = transcription.ClassifyTransportError(name, err)
	}
	return Attempt{
		Backend:          name,
		Status:           AttemptFailed,
		ProcessingTimeMs: elapsedMs,
		Code:             appErr.Code,
		Message:          appErr.Message,
	}
}
