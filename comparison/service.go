// Package comparison implements the diarization-driven transcription
// pipeline: one recording is split into speaker segments, every segment is
// fanned out to several transcription backends in parallel, and the outcomes
// are merged into a single chronologically ordered comparison document.
package comparison

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/crosscribe/audio"
	"github.com/kbukum/crosscribe/diarization"
	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/provider"
	"github.com/kbukum/crosscribe/storage"
	"github.com/kbukum/crosscribe/transcription"
	"github.com/kbukum/crosscribe/validation"
)

// Config configures the comparison service.
type Config struct {
	// WorkDir is where recordings and clips are materialized.
	WorkDir string `mapstructure:"work_dir"`
	// Diarizer names the diarization provider to use.
	Diarizer string `mapstructure:"diarizer"`
	// DefaultBackends is the fan-out target when a run names none.
	DefaultBackends []string `mapstructure:"default_backends"`
	// MinSpeakers bounds diarization from below.
	MinSpeakers int `mapstructure:"min_speakers"`
	// MaxSpeakers bounds diarization from above.
	MaxSpeakers int `mapstructure:"max_speakers"`
	// PerBackendTimeout bounds each transcription call.
	PerBackendTimeout time.Duration `mapstructure:"per_backend_timeout"`
	// SegmentConcurrency bounds the segment worker pool.
	SegmentConcurrency int `mapstructure:"segment_concurrency"`
	// OverallDeadline bounds a whole run.
	OverallDeadline time.Duration `mapstructure:"overall_deadline"`
	// MaxClipBytes caps the clip payload sent to backends.
	MaxClipBytes int64 `mapstructure:"max_clip_bytes"`
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
	if c.Diarizer == "" {
		c.Diarizer = "pyannote"
	}
	if c.MinSpeakers <= 0 {
		c.MinSpeakers = 1
	}
	if c.MaxSpeakers <= 0 {
		c.MaxSpeakers = 4
	}
	if c.PerBackendTimeout <= 0 {
		c.PerBackendTimeout = 30 * time.Second
	}
	if c.SegmentConcurrency <= 0 {
		c.SegmentConcurrency = 4
	}
	if c.OverallDeadline <= 0 {
		c.OverallDeadline = 10 * time.Minute
	}
	if c.MaxClipBytes <= 0 {
		c.MaxClipBytes = 24 << 20
	}
}

// overlapTolerance is how much two adjacent segments may overlap, in
// seconds, before the later one is flagged.
const overlapTolerance = 0.01

// Service runs comparison pipelines end to end.
type Service struct {
	cfg       Config
	diarizers *provider.Registry[diarization.Provider]
	backends  *provider.Registry[transcription.Provider]
	blobs     storage.Storage
	metrics   *Metrics
	log       *logger.Logger
}

// NewService creates a comparison Service.
func NewService(cfg Config, diarizers *provider.Registry[diarization.Provider], backends *provider.Registry[transcription.Provider], blobs storage.Storage, metrics *Metrics, log *logger.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{
		cfg:       cfg,
		diarizers: diarizers,
		backends:  backends,
		blobs:     blobs,
		metrics:   metrics,
		log:       log.WithComponent("comparison"),
	}
}

// RunComparison executes one pipeline run over a stored recording. Failures
// local to one segment or one backend are folded into the result; only
// failures that make any result impossible (unreadable recording, diarizer
// unreachable) come back as an error.
func (s *Service) RunComparison(ctx context.Context, recordingRef string, opts Options) (*ComparisonResult, error) {
	start := time.Now()

	if err := validation.Validate(opts); err != nil {
		return nil, err
	}
	names, err := s.resolveBackends(opts.Backends)
	if err != nil {
		return nil, err
	}

	deadline := s.cfg.OverallDeadline
	if opts.OverallDeadlineMs > 0 {
		deadline = time.Duration(opts.OverallDeadlineMs) * time.Millisecond
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	rec, cleanup, err := s.materialize(runCtx, recordingRef)
	if err != nil {
		s.metrics.RecordRun(ctx, "error", time.Since(start))
		return nil, err
	}
	defer cleanup()

	diaResp, err := s.diarize(runCtx, rec, opts)
	if err != nil {
		s.metrics.RecordRun(ctx, "error", time.Since(start))
		return nil, err
	}

	segments := make([]diarization.Segment, len(diaResp.Segments))
	copy(segments, diaResp.Segments)
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	dispatcher := NewDispatcher(s.backends, DispatcherConfig{
		CallTimeout:  s.perBackendTimeout(opts),
		MaxClipBytes: s.cfg.MaxClipBytes,
	}, s.metrics, s.log)
	extractor := audio.NewExtractor(s.cfg.WorkDir, s.log)
	processor := NewProcessor(extractor, dispatcher, s.metrics, s.log)

	concurrency := s.cfg.SegmentConcurrency
	if opts.SegmentConcurrency > 0 {
		concurrency = opts.SegmentConcurrency
	}

	req := transcription.TranscriptionRequest{
		Language: opts.Language,
		Prompt:   opts.Prompt,
	}
	processed := processor.Process(runCtx, *rec, segments, names, concurrency, req)

	result := Aggregate(processed, names)
	s.flagOverlaps(result.Segments)
	result.DurationSec = rec.Duration
	result.NumSpeakers = diaResp.NumSpeakers
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	status := "ok"
	if result.Partial {
		status = "partial"
	}
	s.metrics.RecordRun(ctx, status, time.Since(start))
	s.log.Info("comparison run finished", logger.Fields(
		logger.FieldStatus, status,
		"segments", len(result.Segments),
		"backends", len(names),
		logger.FieldDuration, result.ProcessingTimeMs,
	))
	return result, nil
}

// resolveBackends picks the fan-out targets and rejects names that were
// never registered. A typo here should fail the run up front, not surface
// as a wall of NOT_FOUND attempts.
func (s *Service) resolveBackends(requested []string) ([]string, error) {
	names := requested
	if len(names) == 0 {
		names = s.cfg.DefaultBackends
	}
	if len(names) == 0 {
		return nil, errors.InvalidInput("backends", "no transcription backends configured")
	}
	for _, name := range names {
		if _, ok := s.backends.Get(name); !ok {
			return nil, errors.InvalidInput("backends", "unknown backend "+name)
		}
	}
	return names, nil
}

func (s *Service) perBackendTimeout(opts Options) time.Duration {
	if opts.PerBackendTimeoutMs > 0 {
		return time.Duration(opts.PerBackendTimeoutMs) * time.Millisecond
	}
	return s.cfg.PerBackendTimeout
}

// materialize downloads the stored recording into the work directory and
// normalizes it for the diarization and transcription sidecars. The returned
// cleanup removes both the raw copy and the normalized wav.
func (s *Service) materialize(ctx context.Context, recordingRef string) (*audio.Recording, func(), error) {
	src, err := s.blobs.Download(ctx, recordingRef)
	if err != nil {
		return nil, nil, errors.NotFound("recording", recordingRef).WithCause(err)
	}
	defer src.Close()

	id := uuid.NewString()
	rawPath := filepath.Join(s.cfg.WorkDir, id+".raw")
	wavPath := filepath.Join(s.cfg.WorkDir, id+".wav")
	cleanup := func() {
		os.Remove(rawPath)
		os.Remove(wavPath)
	}

	dst, err := os.Create(rawPath)
	if err != nil {
		return nil, nil, errors.Internal(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		cleanup()
		return nil, nil, errors.Internal(err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return nil, nil, errors.Internal(err)
	}

	rec, err := audio.Normalize(ctx, rawPath, wavPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return rec, cleanup, nil
}

// diarize calls the configured diarization provider. A diarizer failure
// aborts the run since there is nothing meaningful to fan out.
func (s *Service) diarize(ctx context.Context, rec *audio.Recording, opts Options) (*diarization.DiarizationResponse, error) {
	diarizer, ok := s.diarizers.Get(s.cfg.Diarizer)
	if !ok {
		return nil, errors.ServiceUnavailable("diarizer " + s.cfg.Diarizer + " is not configured")
	}

	minSpeakers := s.cfg.MinSpeakers
	if opts.MinSpeakers > 0 {
		minSpeakers = opts.MinSpeakers
	}
	maxSpeakers := s.cfg.MaxSpeakers
	if opts.MaxSpeakers > 0 {
		maxSpeakers = opts.MaxSpeakers
	}

	resp, err := diarizer.Diarize(ctx, diarization.DiarizationRequest{
		AudioPath:   rec.Path,
		MinSpeakers: minSpeakers,
		MaxSpeakers: maxSpeakers,
		Language:    opts.Language,
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// flagOverlaps marks segments whose range overlaps the previous segment.
// The diarizer contract says segments do not overlap, but when one slips
// through it is flagged for the consumer rather than clipped or merged.
func (s *Service) flagOverlaps(segments []SegmentResult) {
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].End-overlapTolerance {
			segments[i].Overlaps = true
			s.log.Warn("overlapping diarization segments", logger.Fields(
				logger.FieldSegment, segments[i].Index,
				"start", segments[i].Start,
				"previous_end", segments[i-1].End,
			))
		}
	}
}
