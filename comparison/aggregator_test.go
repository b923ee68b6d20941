package comparison

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/transcription"
)

func okAttempt(backend, text string, latencyMs int64) Attempt {
	return Attempt{Backend: backend, Status: AttemptOK, Text: text, ProcessingTimeMs: latencyMs}
}

func failedTimeout(backend string) Attempt {
	return Attempt{Backend: backend, Status: AttemptFailed, Code: errors.ErrCodeBackendTimeout, Message: "timed out"}
}

func TestAggregate_OrderIsChronologicalRegardlessOfCompletion(t *testing.T) {
	const n = 20
	segments := make([]SegmentResult, 0, n)
	for i := 0; i < n; i++ {
		segments = append(segments, SegmentResult{
			Index:   i,
			Speaker: "SPEAKER_0" + strconv.Itoa(i%2),
			Start:   float64(i),
			End:     float64(i) + 1,
			Attempts: map[string]Attempt{
				"whisper": okAttempt("whisper", "seg"+strconv.Itoa(i), 10),
			},
		})
	}

	// Simulate non-deterministic completion order.
	rng := rand.New(rand.NewSource(42))
	rng.Shuffle(len(segments), func(i, j int) {
		segments[i], segments[j] = segments[j], segments[i]
	})

	result := Aggregate(segments, []string{"whisper"})
	for i, seg := range result.Segments {
		if seg.Index != i {
			t.Fatalf("position %d holds segment %d", i, seg.Index)
		}
	}

	want := "seg0"
	for i := 1; i < n; i++ {
		want += " seg" + strconv.Itoa(i)
	}
	if got := result.Backends["whisper"].FullText; got != want {
		t.Errorf("full text out of order:\n got %q\nwant %q", got, want)
	}
}

func TestAggregate_HeterogeneousFailures(t *testing.T) {
	// Backend B times out on segment 2 only: 3 segments x 3 backends gives
	// 9 attempt entries, 8 ok and exactly one timeout.
	names := []string{"a", "b", "c"}
	segments := make([]SegmentResult, 3)
	for i := range segments {
		attempts := map[string]Attempt{}
		for _, name := range names {
			if name == "b" && i == 2 {
				attempts[name] = failedTimeout(name)
				continue
			}
			attempts[name] = okAttempt(name, name+strconv.Itoa(i), int64(100*(i+1)))
		}
		segments[i] = SegmentResult{Index: i, Start: float64(i), End: float64(i) + 1, Attempts: attempts}
	}

	result := Aggregate(segments, names)

	total, failures := 0, 0
	for _, seg := range result.Segments {
		for _, name := range names {
			attempt, ok := seg.Attempts[name]
			if !ok {
				t.Fatalf("missing attempt entry for (%d, %s)", seg.Index, name)
			}
			total++
			if attempt.Status != AttemptOK {
				failures++
				if seg.Index != 2 || name != "b" || attempt.Code != errors.ErrCodeBackendTimeout {
					t.Errorf("unexpected failure at (%d, %s): %v", seg.Index, name, attempt.Code)
				}
			}
		}
	}
	if total != 9 || failures != 1 {
		t.Errorf("expected 9 attempts with 1 failure, got %d/%d", total, failures)
	}

	if got := result.Backends["b"].FullText; got != "b0 b1" {
		t.Errorf("backend b full text must omit segment 2, got %q", got)
	}
	if result.Backends["b"].SuccessCount != 2 || result.Backends["b"].FailureCount != 1 {
		t.Errorf("backend b stats wrong: %+v", result.Backends["b"])
	}
	if result.Backends["a"].SuccessCount != 3 {
		t.Errorf("backend a stats wrong: %+v", result.Backends["a"])
	}
	if result.Partial {
		t.Error("failed attempts alone must not mark the run partial")
	}
}

func TestAggregate_AvgLatencyOverSuccessesOnly(t *testing.T) {
	segments := []SegmentResult{
		{Index: 0, Attempts: map[string]Attempt{
			"fast": okAttempt("fast", "x", 100),
			"dead": failedTimeout("dead"),
		}},
		{Index: 1, Attempts: map[string]Attempt{
			"fast": okAttempt("fast", "y", 300),
			"dead": failedTimeout("dead"),
		}},
	}

	result := Aggregate(segments, []string{"fast", "dead"})

	fast := result.Backends["fast"]
	if fast.AvgLatencyMs == nil || *fast.AvgLatencyMs != 200 {
		t.Errorf("expected avg latency 200, got %v", fast.AvgLatencyMs)
	}
	dead := result.Backends["dead"]
	if dead.AvgLatencyMs != nil {
		t.Errorf("backend with zero successes must report nil latency, got %v", *dead.AvgLatencyMs)
	}
	if dead.FullText != "" {
		t.Errorf("expected empty full text, got %q", dead.FullText)
	}
}

func TestAggregate_MissingMapKeyBecomesFailure(t *testing.T) {
	segments := []SegmentResult{
		{Index: 0, Attempts: map[string]Attempt{"present": okAttempt("present", "x", 10)}},
	}

	result := Aggregate(segments, []string{"present", "absent"})
	if result.Backends["absent"].FailureCount != 1 {
		t.Errorf("absent backend must be counted as a failure, got %+v", result.Backends["absent"])
	}

	attempt, ok := result.Segments[0].Attempts["absent"]
	if !ok {
		t.Fatal("the grid must carry an entry for every requested backend")
	}
	if attempt.Status != AttemptFailed {
		t.Errorf("expected failed status, got %s", attempt.Status)
	}
	if attempt.Code != errors.ErrCodeBackendUnknown {
		t.Errorf("expected BACKEND_UNKNOWN, got %s", attempt.Code)
	}
	if attempt.Backend != "absent" {
		t.Errorf("expected backend name on the entry, got %q", attempt.Backend)
	}

	// The caller's map stays untouched.
	if _, ok := segments[0].Attempts["absent"]; ok {
		t.Error("input segments must not be mutated")
	}
}

func TestAggregate_NotProcessedMarksPartial(t *testing.T) {
	segments := []SegmentResult{
		{Index: 0, Attempts: map[string]Attempt{"a": okAttempt("a", "x", 10)}},
		{Index: 1, Attempts: map[string]Attempt{"a": {
			Backend: "a", Status: AttemptNotProcessed, Code: errors.ErrCodeNotProcessed,
		}}},
	}

	result := Aggregate(segments, []string{"a"})
	if !result.Partial {
		t.Error("expected partial result")
	}
	if result.Backends["a"].NotProcessedCount != 1 {
		t.Errorf("expected 1 not processed, got %+v", result.Backends["a"])
	}
}

func TestAggregate_TokenUsageSummed(t *testing.T) {
	attempt := okAttempt("gpt4o", "x", 10)
	attempt.Usage = &transcription.Usage{TotalTokens: 25}
	attempt2 := okAttempt("gpt4o", "y", 10)
	attempt2.Usage = &transcription.Usage{TotalTokens: 17}

	segments := []SegmentResult{
		{Index: 0, Attempts: map[string]Attempt{"gpt4o": attempt}},
		{Index: 1, Attempts: map[string]Attempt{"gpt4o": attempt2}},
	}

	result := Aggregate(segments, []string{"gpt4o"})
	if got := result.Backends["gpt4o"].TotalTokens; got != 42 {
		t.Errorf("expected 42 total tokens, got %d", got)
	}
}
