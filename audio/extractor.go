package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/process"
)

// durationTolerance absorbs rounding differences between diarization
// timestamps and the probed recording duration.
const durationTolerance = 0.05

// Extractor cuts per-segment clips out of a recording with ffmpeg.
// It is stateless apart from the working directory clips are written to.
type Extractor struct {
	workDir string
	log     *logger.Logger
}

// NewExtractor creates an Extractor writing clips under workDir.
func NewExtractor(workDir string, log *logger.Logger) *Extractor {
	return &Extractor{
		workDir: workDir,
		log:     log.WithComponent("extractor"),
	}
}

// Extract produces a clip covering [start, end) of the recording. Degenerate
// ranges are rejected before ffmpeg is ever invoked.
func (e *Extractor) Extract(ctx context.Context, rec Recording, start, end float64) (*Clip, error) {
	if start < 0 {
		return nil, errors.InvalidSegment("start must be non-negative", start, end)
	}
	if start >= end {
		return nil, errors.InvalidSegment("start must be before end", start, end)
	}
	if rec.Duration > 0 && end > rec.Duration+durationTolerance {
		return nil, errors.InvalidSegment("end exceeds recording duration", start, end).
			WithDetail("duration", rec.Duration)
	}

	outPath := filepath.Join(e.workDir, uuid.New().String()+".wav")

	began := time.Now()
	result, err := process.Run(ctx, process.Command{
		Binary: "ffmpeg",
		Args: []string{
			"-y",
			"-i", rec.Path,
			"-ss", formatSeconds(start),
			"-to", formatSeconds(end),
			"-c:a", "pcm_s16le",
			outPath,
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Timeout("extract segment").WithCause(err)
		}
		stderr := ""
		if result != nil {
			stderr = truncate(string(result.Stderr), 300)
		}
		return nil, errors.ExternalServiceError("ffmpeg", err).
			WithDetail("stderr", stderr)
	}

	e.log.Debug("segment extracted", logger.Fields(
		"start", start,
		"end", end,
		"clip", filepath.Base(outPath),
		logger.FieldDuration, time.Since(began).Milliseconds(),
	))

	return &Clip{Path: outPath}, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
