package comparison

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/crosscribe/audio"
	"github.com/kbukum/crosscribe/diarization"
	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/transcription"
)

// fakeExtractor cuts no audio; it creates an empty clip file per call and
// rejects degenerate ranges the way the real extractor does.
type fakeExtractor struct {
	dir string

	mu      sync.Mutex
	created []string
}

func (f *fakeExtractor) Extract(_ context.Context, rec audio.Recording, start, end float64) (*audio.Clip, error) {
	if start >= end {
		return nil, errors.InvalidSegment("start must be before end", start, end)
	}
	if end > rec.Duration+0.05 {
		return nil, errors.InvalidSegment("end is past the recording duration", start, end)
	}
	// Clip names encode the segment start so backend fakes can tell
	// segments apart.
	f.mu.Lock()
	path := filepath.Join(f.dir, "clip-"+strconv.FormatFloat(start, 'f', 0, 64)+".wav")
	f.created = append(f.created, path)
	f.mu.Unlock()
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return nil, err
	}
	return &audio.Clip{Path: path}, nil
}

func (f *fakeExtractor) leakedClips() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var leaked []string
	for _, path := range f.created {
		if _, err := os.Stat(path); err == nil {
			leaked = append(leaked, path)
		}
	}
	return leaked
}

func evenSegments(n int) []diarization.Segment {
	segments := make([]diarization.Segment, n)
	for i := range segments {
		segments[i] = diarization.Segment{
			Speaker: "SPEAKER_0" + strconv.Itoa(i%2),
			Start:   float64(i),
			End:     float64(i) + 1,
		}
	}
	return segments
}

func newTestProcessor(t *testing.T, d *Dispatcher) (*Processor, *fakeExtractor) {
	t.Helper()
	extractor := &fakeExtractor{dir: t.TempDir()}
	return NewProcessor(extractor, d, nil, logger.NewDefault("test")), extractor
}

func TestProcess_GridWithSingleTimeout(t *testing.T) {
	// Backend b times out on segment 2 only.
	timeoutOn2 := &fakeBackend{name: "b"}
	timeoutOn2.fn = func(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		if filepath.Base(req.AudioPath) == "clip-2.wav" {
			<-ctx.Done()
			return nil, transcription.ClassifyTransportError("b", ctx.Err())
		}
		return &transcription.TranscriptionResponse{Text: "b text"}, nil
	}
	d := newTestDispatcher(t, DispatcherConfig{CallTimeout: 100 * time.Millisecond},
		echoBackend("a", "a text"), timeoutOn2, echoBackend("c", "c text"))
	p, extractor := newTestProcessor(t, d)

	rec := audio.Recording{Path: "rec.wav", Duration: 3}
	results := p.Process(context.Background(), rec, evenSegments(3), []string{"a", "b", "c"}, 2, transcription.TranscriptionRequest{})

	total, ok := 0, 0
	for _, seg := range results {
		for _, name := range []string{"a", "b", "c"} {
			attempt, present := seg.Attempts[name]
			if !present {
				t.Fatalf("missing entry (%d, %s)", seg.Index, name)
			}
			total++
			if attempt.Status == AttemptOK {
				ok++
			}
		}
	}
	if total != 9 || ok != 8 {
		t.Fatalf("expected 9 entries with 8 ok, got %d/%d", total, ok)
	}
	if got := results[2].Attempts["b"]; got.Code != errors.ErrCodeBackendTimeout {
		t.Errorf("expected BACKEND_TIMEOUT at (2, b), got %+v", got)
	}

	if leaked := extractor.leakedClips(); len(leaked) != 0 {
		t.Errorf("clips not released: %v", leaked)
	}
}

func TestProcess_DegenerateSegmentIsErrorEntryNotDropped(t *testing.T) {
	d := newTestDispatcher(t, DispatcherConfig{CallTimeout: time.Second}, echoBackend("a", "x"))
	p, extractor := newTestProcessor(t, d)

	segments := []diarization.Segment{
		{Speaker: "SPEAKER_00", Start: 0, End: 1},
		{Speaker: "SPEAKER_01", Start: 2, End: 2}, // start >= end
		{Speaker: "SPEAKER_00", Start: 2, End: 3},
	}
	rec := audio.Recording{Path: "rec.wav", Duration: 3}
	results := p.Process(context.Background(), rec, segments, []string{"a"}, 2, transcription.TranscriptionRequest{})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	bad := results[1]
	if bad.Error == nil || bad.Error.Code != errors.ErrCodeInvalidSegment {
		t.Fatalf("expected INVALID_SEGMENT error entry, got %+v", bad.Error)
	}
	if got := bad.Attempts["a"]; got.Status != AttemptFailed || got.Code != errors.ErrCodeInvalidSegment {
		t.Errorf("backend view of the bad segment: %+v", got)
	}
	for _, i := range []int{0, 2} {
		if got := results[i].Attempts["a"]; got.Status != AttemptOK {
			t.Errorf("segment %d should still succeed, got %+v", i, got)
		}
	}

	if leaked := extractor.leakedClips(); len(leaked) != 0 {
		t.Errorf("clips not released: %v", leaked)
	}
}

func TestProcess_DeadlineMarksRemainingNotProcessed(t *testing.T) {
	slow := &fakeBackend{name: "slow"}
	slow.fn = func(ctx context.Context, _ transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		select {
		case <-ctx.Done():
			return nil, transcription.ClassifyTransportError("slow", ctx.Err())
		case <-time.After(30 * time.Millisecond):
			return &transcription.TranscriptionResponse{Text: "ok"}, nil
		}
	}
	d := newTestDispatcher(t, DispatcherConfig{CallTimeout: time.Second}, slow)
	p, extractor := newTestProcessor(t, d)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	const n = 20
	rec := audio.Recording{Path: "rec.wav", Duration: n}
	results := p.Process(ctx, rec, evenSegments(n), []string{"slow"}, 1, transcription.TranscriptionRequest{})

	if len(results) != n {
		t.Fatalf("expected %d results, got %d", n, len(results))
	}
	completed, notProcessed := 0, 0
	for _, seg := range results {
		attempt, present := seg.Attempts["slow"]
		if !present {
			t.Fatalf("segment %d has no attempt entry", seg.Index)
		}
		switch attempt.Status {
		case AttemptOK:
			completed++
		case AttemptNotProcessed:
			notProcessed++
			if attempt.Code != errors.ErrCodeNotProcessed {
				t.Errorf("segment %d: wrong code %v", seg.Index, attempt.Code)
			}
		}
	}
	if completed == 0 {
		t.Error("expected at least one segment to complete before the deadline")
	}
	if notProcessed == 0 {
		t.Error("expected the deadline to cut off at least one segment")
	}

	if leaked := extractor.leakedClips(); len(leaked) != 0 {
		t.Errorf("clips not released: %v", leaked)
	}
}

func TestProcess_OrderDeterministicUnderRandomLatency(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var mu sync.Mutex
	jittery := &fakeBackend{name: "j"}
	jittery.fn = func(_ context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		mu.Lock()
		delay := time.Duration(rng.Intn(20)) * time.Millisecond
		mu.Unlock()
		time.Sleep(delay)
		return &transcription.TranscriptionResponse{Text: filepath.Base(req.AudioPath)}, nil
	}
	d := newTestDispatcher(t, DispatcherConfig{CallTimeout: time.Second}, jittery)
	p, _ := newTestProcessor(t, d)

	const n = 12
	rec := audio.Recording{Path: "rec.wav", Duration: n}
	results := p.Process(context.Background(), rec, evenSegments(n), []string{"j"}, 4, transcription.TranscriptionRequest{})

	for i, seg := range results {
		if seg.Index != i {
			t.Fatalf("slot %d holds segment %d", i, seg.Index)
		}
		if seg.Start != float64(i) {
			t.Errorf("segment %d carries wrong range %v", i, seg.Start)
		}
	}
}
