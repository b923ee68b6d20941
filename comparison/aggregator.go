package comparison

import (
	"sort"
	"strings"

	"github.com/kbukum/crosscribe/errors"
)

// Aggregate folds per-segment attempt maps into the final ComparisonResult.
// Segment order in the output follows the chronological index order, not the
// order in which concurrent work completed. Every requested backend gets a
// stats entry even when it never succeeded.
func Aggregate(segments []SegmentResult, names []string) *ComparisonResult {
	ordered := make([]SegmentResult, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	backends := make(map[string]*BackendStats, len(names))
	texts := make(map[string][]string, len(names))
	latencySums := make(map[string]int64, len(names))
	partial := false

	for _, name := range names {
		backends[name] = &BackendStats{}
	}

	for i := range ordered {
		seg := &ordered[i]
		segNotProcessed := false
		for _, name := range names {
			stats := backends[name]
			attempt, ok := seg.Attempts[name]
			if !ok {
				// A hole in the attempt map would hide a whole grid cell
				// from consumers. Materialize an explicit failure entry.
				attempt = Attempt{
					Backend: name,
					Status:  AttemptFailed,
					Code:    errors.ErrCodeBackendUnknown,
					Message: "no attempt recorded",
				}
				attempts := make(map[string]Attempt, len(names))
				for k, v := range seg.Attempts {
					attempts[k] = v
				}
				attempts[name] = attempt
				seg.Attempts = attempts
			}
			switch attempt.Status {
			case AttemptOK:
				stats.SuccessCount++
				latencySums[name] += attempt.ProcessingTimeMs
				if text := strings.TrimSpace(attempt.Text); text != "" {
					texts[name] = append(texts[name], text)
				}
			case AttemptNotProcessed:
				stats.NotProcessedCount++
				segNotProcessed = true
			default:
				stats.FailureCount++
			}
			if attempt.Usage != nil {
				stats.TotalTokens += attempt.Usage.TotalTokens
			}
		}
		if segNotProcessed {
			partial = true
		}
	}

	for _, name := range names {
		stats := backends[name]
		if stats.SuccessCount > 0 {
			avg := float64(latencySums[name]) / float64(stats.SuccessCount)
			stats.AvgLatencyMs = &avg
		}
		stats.FullText = strings.Join(texts[name], " ")
	}

	return &ComparisonResult{
		Segments: ordered,
		Backends: backends,
		Partial:  partial,
	}
}
