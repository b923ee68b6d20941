package audio

import (
	"context"
	"testing"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
)

func TestExtractor_RejectsDegenerateRanges(t *testing.T) {
	e := NewExtractor(t.TempDir(), logger.NewDefault("test"))
	rec := Recording{Path: "/nonexistent.wav", Duration: 10}

	tests := []struct {
		name       string
		start, end float64
	}{
		{"start equals end", 3, 3},
		{"start after end", 5, 2},
		{"negative start", -1, 2},
		{"end past duration", 8, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), rec, tt.start, tt.end)
			if err == nil {
				t.Fatal("expected error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != errors.ErrCodeInvalidSegment {
				t.Errorf("expected INVALID_SEGMENT, got %s", appErr.Code)
			}
		})
	}
}

func TestExtractor_ToleratesSmallDurationOverrun(t *testing.T) {
	e := NewExtractor(t.TempDir(), logger.NewDefault("test"))
	rec := Recording{Path: "/nonexistent.wav", Duration: 10}

	// 10.02 is within rounding tolerance of the probed duration, so the
	// range check passes; the failure comes from ffmpeg on a missing file,
	// not from validation.
	_, err := e.Extract(context.Background(), rec, 9, 10.02)
	if err == nil {
		t.Fatal("expected error from ffmpeg on a missing input")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code == errors.ErrCodeInvalidSegment {
		t.Errorf("a tolerable overrun must not be rejected as INVALID_SEGMENT")
	}
}

func TestClip_CloseTwice(t *testing.T) {
	c := &Clip{Path: t.TempDir() + "/gone.wav"}
	if err := c.Close(); err != nil {
		t.Errorf("close on missing file should be nil, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close should be nil, got %v", err)
	}
}
