package comparison

import (
	"context"
	"sync"

	"github.com/kbukum/crosscribe/audio"
	"github.com/kbukum/crosscribe/diarization"
	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/resilience"
	"github.com/kbukum/crosscribe/transcription"
)

// ClipExtractor produces a temporary clip artifact covering one segment of a
// recording.
type ClipExtractor interface {
	Extract(ctx context.Context, rec audio.Recording, start, end float64) (*audio.Clip, error)
}

// Processor runs diarized segments through clip extraction and backend
// fan-out under a bounded worker pool. Results come back in chronological
// segment order no matter which segments finished first.
type Processor struct {
	extractor  ClipExtractor
	dispatcher *Dispatcher
	metrics    *Metrics
	log        *logger.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(extractor ClipExtractor, dispatcher *Dispatcher, metrics *Metrics, log *logger.Logger) *Processor {
	return &Processor{
		extractor:  extractor,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log.WithComponent("processor"),
	}
}

// Process extracts a clip for each segment and fans it out to the named
// backends. Concurrency across segments is capped; a single segment's
// failure is recorded in its slot and never stops the others. Segments the
// run deadline cuts off come back marked not processed rather than missing.
func (p *Processor) Process(ctx context.Context, rec audio.Recording, segments []diarization.Segment, names []string, concurrency int, req transcription.TranscriptionRequest) []SegmentResult {
	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "segments",
		MaxConcurrent: concurrency,
	})

	results := make([]SegmentResult, len(segments))
	var wg sync.WaitGroup
	for i, seg := range segments {
		wg.Add(1)
		go func(i int, seg diarization.Segment) {
			defer wg.Done()
			err := bulkhead.Execute(ctx, func() error {
				results[i] = p.processOne(ctx, rec, i, seg, names, req)
				return nil
			})
			if err != nil {
				// Deadline expired while waiting for a worker slot.
				results[i] = notProcessedResult(i, seg, names)
				p.metrics.RecordSegment(ctx, string(AttemptNotProcessed))
			}
		}(i, seg)
	}
	wg.Wait()

	return results
}

// processOne handles a single segment. The clip is released on every exit
// path once all backends have consumed it.
func (p *Processor) processOne(ctx context.Context, rec audio.Recording, index int, seg diarization.Segment, names []string, req transcription.TranscriptionRequest) SegmentResult {
	if ctx.Err() != nil {
		p.metrics.RecordSegment(ctx, string(AttemptNotProcessed))
		return notProcessedResult(index, seg, names)
	}

	result := SegmentResult{
		Index:    index,
		Speaker:  seg.Speaker,
		Start:    seg.Start,
		End:      seg.End,
		Attempts: make(map[string]Attempt, len(names)),
	}

	clip, err := p.extractor.Extract(ctx, rec, seg.Start, seg.End)
	if err != nil {
		if ctx.Err() != nil {
			p.metrics.RecordSegment(ctx, string(AttemptNotProcessed))
			return notProcessedResult(index, seg, names)
		}
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Internal(err)
		}
		p.log.Warn("clip extraction failed", logger.Fields(
			logger.FieldSegment, index,
			logger.FieldSpeaker, seg.Speaker,
			logger.FieldError, appErr.Error(),
		))
		body := appErr.ToResponse().Error
		result.Error = &body
		for _, name := range names {
			result.Attempts[name] = Attempt{
				Backend: name,
				Status:  AttemptFailed,
				Code:    appErr.Code,
				Message: appErr.Message,
			}
		}
		p.metrics.RecordSegment(ctx, string(AttemptFailed))
		return result
	}
	defer func() {
		if err := clip.Close(); err != nil {
			p.log.Warn("clip cleanup failed", logger.ErrorFields("clip_close", err))
		}
	}()

	result.Attempts = p.dispatcher.TranscribeAll(ctx, clip.Path, names, req)
	p.metrics.RecordSegment(ctx, segmentStatus(result.Attempts))
	return result
}

// notProcessedResult fills a segment slot whose work never started.
func notProcessedResult(index int, seg diarization.Segment, names []string) SegmentResult {
	appErr := errors.NotProcessed()
	attempts := make(map[string]Attempt, len(names))
	for _, name := range names {
		attempts[name] = Attempt{
			Backend: name,
			Status:  AttemptNotProcessed,
			Code:    appErr.Code,
			Message: appErr.Message,
		}
	}
	return SegmentResult{
		Index:    index,
		Speaker:  seg.Speaker,
		Start:    seg.Start,
		End:      seg.End,
		Attempts: attempts,
	}
}

// segmentStatus summarizes a processed segment for metrics.
func segmentStatus(attempts map[string]Attempt) string {
	for _, a := range attempts {
		if a.Status == AttemptOK {
			return string(AttemptOK)
		}
	}
	return string(AttemptFailed)
}
