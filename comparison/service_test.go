package comparison

import (
	"context"
	"testing"

	"github.com/kbukum/crosscribe/diarization"
	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/storage/local"
	"github.com/kbukum/crosscribe/transcription"
)

func newTestService(t *testing.T, backendNames ...string) *Service {
	t.Helper()
	backends := transcription.NewRegistry()
	for _, name := range backendNames {
		backends.Set(name, echoBackend(name, "text"))
	}
	blobs, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{WorkDir: t.TempDir(), DefaultBackends: backendNames}
	return NewService(cfg, diarization.NewRegistry(), backends, blobs, nil, logger.NewDefault("test"))
}

func TestRunComparison_UnknownBackendFailsFast(t *testing.T) {
	s := newTestService(t, "whisper")

	_, err := s.RunComparison(context.Background(), "recordings/x.raw", Options{
		Backends: []string{"whisper", "ghost"},
	})
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRunComparison_NoBackendsConfigured(t *testing.T) {
	s := newTestService(t)

	_, err := s.RunComparison(context.Background(), "recordings/x.raw", Options{})
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRunComparison_RejectsInvalidOptions(t *testing.T) {
	s := newTestService(t, "whisper")

	_, err := s.RunComparison(context.Background(), "recordings/x.raw", Options{
		MinSpeakers: -3,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunComparison_MissingRecording(t *testing.T) {
	s := newTestService(t, "whisper")

	_, err := s.RunComparison(context.Background(), "recordings/never-uploaded.raw", Options{})
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestFlagOverlaps(t *testing.T) {
	s := newTestService(t, "whisper")

	segments := []SegmentResult{
		{Index: 0, Start: 0, End: 2},
		{Index: 1, Start: 1.5, End: 3},  // overlaps previous
		{Index: 2, Start: 3, End: 4},    // touching is fine
		{Index: 3, Start: 3.995, End: 5}, // within tolerance
	}
	s.flagOverlaps(segments)

	if segments[0].Overlaps {
		t.Error("first segment can never overlap")
	}
	if !segments[1].Overlaps {
		t.Error("segment 1 overlaps segment 0 and must be flagged")
	}
	if segments[2].Overlaps {
		t.Error("adjacent segments must not be flagged")
	}
	if segments[3].Overlaps {
		t.Error("overlap within tolerance must not be flagged")
	}
}
