package comparison

import (
	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/transcription"
)

// AttemptStatus describes the outcome of one (segment, backend) attempt.
type AttemptStatus string

const (
	// AttemptOK indicates the backend returned a transcription.
	AttemptOK AttemptStatus = "ok"
	// AttemptFailed indicates the backend call was made and failed.
	AttemptFailed AttemptStatus = "failed"
	// AttemptNotProcessed indicates the segment was never dispatched to the
	// backend because the run deadline expired first.
	AttemptNotProcessed AttemptStatus = "not_processed"
)

// Attempt is the immutable outcome of one transcription call for one segment.
type Attempt struct {
	// Backend is the name of the transcription backend.
	Backend string `json:"backend"`
	// Status is the attempt outcome.
	Status AttemptStatus `json:"status"`
	// Text is the transcribed text. Only set when Status is "ok".
	Text string `json:"text,omitempty"`
	// ProcessingTimeMs is the wall-clock duration of the call in milliseconds.
	ProcessingTimeMs int64 `json:"processing_time_ms"`
	// Usage is token accounting, for backends that report it.
	Usage *transcription.Usage `json:"usage,omitempty"`
	// Code classifies the failure. Only set when Status is not "ok".
	Code errors.ErrorCode `json:"code,omitempty"`
	// Message is a human-readable failure description.
	Message string `json:"message,omitempty"`
}

// SegmentResult carries one speaker segment and the outcome of every backend
// that was asked to transcribe it. The Attempts map always contains an entry
// for every requested backend, failed or not.
type SegmentResult struct {
	// Index is the chronological position of the segment within the recording.
	Index int `json:"index"`
	// Speaker is the diarization speaker label.
	Speaker string `json:"speaker"`
	// Start is the segment start offset in seconds.
	Start float64 `json:"start"`
	// End is the segment end offset in seconds.
	End float64 `json:"end"`
	// Overlaps marks a segment whose range overlaps the previous segment.
	Overlaps bool `json:"overlaps,omitempty"`
	// Attempts maps backend name to that backend's attempt for this segment.
	Attempts map[string]Attempt `json:"attempts"`
	// Error is set when the segment itself failed before any backend was
	// called, for example clip extraction on a degenerate range.
	Error *errors.ErrorBody `json:"error,omitempty"`
}

// BackendStats aggregates one backend's outcomes across all segments.
type BackendStats struct {
	// SuccessCount is the number of segments this backend transcribed.
	SuccessCount int `json:"success_count"`
	// FailureCount is the number of segments where the call failed.
	FailureCount int `json:"failure_count"`
	// NotProcessedCount is the number of segments never dispatched.
	NotProcessedCount int `json:"not_processed_count"`
	// AvgLatencyMs is the mean call latency over successful attempts only.
	// Nil when the backend had no successes.
	AvgLatencyMs *float64 `json:"avg_latency_ms"`
	// TotalTokens sums token usage across attempts, for metered backends.
	TotalTokens int `json:"total_tokens,omitempty"`
	// FullText is the per-segment text concatenated in chronological order,
	// skipping failed segments.
	FullText string `json:"full_text"`
}

// ComparisonResult is the final output of one pipeline run. Read-only after
// construction.
type ComparisonResult struct {
	// DurationSec is the recording duration in seconds.
	DurationSec float64 `json:"duration_sec"`
	// NumSpeakers is the number of speakers the diarizer detected.
	NumSpeakers int `json:"num_speakers"`
	// Segments lists every diarized segment in chronological order.
	Segments []SegmentResult `json:"segments"`
	// Backends maps backend name to its aggregate statistics.
	Backends map[string]*BackendStats `json:"backends"`
	// Partial is true when the overall deadline expired before every
	// segment was processed.
	Partial bool `json:"partial"`
	// ProcessingTimeMs is the total wall-clock time of the run.
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// Options control one comparison run. Zero values fall back to the service
// configuration.
type Options struct {
	// Backends selects which transcription backends to fan out to.
	Backends []string `json:"backends,omitempty"`
	// MinSpeakers bounds diarization from below.
	MinSpeakers int `json:"min_speakers,omitempty" validate:"omitempty,min=1"`
	// MaxSpeakers bounds diarization from above.
	MaxSpeakers int `json:"max_speakers,omitempty" validate:"omitempty,min=1"`
	// Language is the expected language of the recording.
	Language string `json:"language,omitempty"`
	// Prompt is an optional hint passed to backends that accept one.
	Prompt string `json:"prompt,omitempty"`
	// PerBackendTimeoutMs bounds each transcription call.
	PerBackendTimeoutMs int64 `json:"per_backend_timeout_ms,omitempty" validate:"omitempty,min=1"`
	// SegmentConcurrency bounds the segment worker pool.
	SegmentConcurrency int `json:"segment_concurrency,omitempty" validate:"omitempty,min=1"`
	// OverallDeadlineMs bounds the whole run.
	OverallDeadlineMs int64 `json:"overall_deadline_ms,omitempty" validate:"omitempty,min=1"`
}
