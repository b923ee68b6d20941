package comparison

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OpenTelemetry instruments for the comparison pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	segmentTotal    metric.Int64Counter
	attemptTotal    metric.Int64Counter
	attemptDuration metric.Float64Histogram
}

// NewMetrics creates pipeline metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runTotal, err := meter.Int64Counter("comparison.run.total",
		metric.WithDescription("Total number of comparison runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating comparison.run.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("comparison.run.duration",
		metric.WithDescription("Duration of comparison runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating comparison.run.duration histogram: %w", err)
	}

	segmentTotal, err := meter.Int64Counter("comparison.segment.total",
		metric.WithDescription("Total number of processed segments"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating comparison.segment.total counter: %w", err)
	}

	attemptTotal, err := meter.Int64Counter("comparison.attempt.total",
		metric.WithDescription("Total number of transcription attempts by backend and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating comparison.attempt.total counter: %w", err)
	}

	attemptDuration, err := meter.Float64Histogram("comparison.attempt.duration",
		metric.WithDescription("Duration of transcription attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating comparison.attempt.duration histogram: %w", err)
	}

	return &Metrics{
		runTotal:        runTotal,
		runDuration:     runDuration,
		segmentTotal:    segmentTotal,
		attemptTotal:    attemptTotal,
		attemptDuration: attemptDuration,
	}, nil
}

// RecordRun records one completed comparison run.
func (m *Metrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.runTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSegment records one processed segment.
func (m *Metrics) RecordSegment(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.segmentTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordAttempt records one transcription attempt.
func (m *Metrics) RecordAttempt(ctx context.Context, backend string, status AttemptStatus, duration time.Duration) {
	if m == nil {
		return
	}
	m.attemptTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", string(status)),
	))
	m.attemptDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("backend", backend),
	))
}
