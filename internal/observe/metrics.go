// Package observe provides observability primitives for the pronunciation
// engine: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/soundslike/pronounce"

// Metrics holds all OpenTelemetry metric instruments for the engine.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// InferDuration tracks acoustic model inference latency.
	InferDuration metric.Float64Histogram

	// DecodeDuration tracks phoneme decode latency.
	DecodeDuration metric.Float64Histogram

	// ScoreDuration tracks phonetic distance scoring latency.
	ScoreDuration metric.Float64Histogram

	// ProcessingAttempts counts detector processing attempts. Use with
	// attribute.String("status", "ok"|"error").
	ProcessingAttempts metric.Int64Counter

	// DetectorEvents counts detector event emissions. Use with
	// attribute.String("event", "phoneme_update"|"matched"|"silence"|"blank_trail").
	DetectorEvents metric.Int64Counter

	// ActiveSessions tracks the number of live detection sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// per-chunk real-time processing latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.InferDuration, err = m.Float64Histogram("pronounce.infer.duration",
		metric.WithDescription("Latency of acoustic model inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DecodeDuration, err = m.Float64Histogram("pronounce.decode.duration",
		metric.WithDescription("Latency of phoneme decoding."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoreDuration, err = m.Float64Histogram("pronounce.score.duration",
		metric.WithDescription("Latency of phonetic distance scoring."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProcessingAttempts, err = m.Int64Counter("pronounce.detector.attempts",
		metric.WithDescription("Total detector processing attempts by status."),
	); err != nil {
		return nil, err
	}
	if met.DetectorEvents, err = m.Int64Counter("pronounce.detector.events",
		metric.WithDescription("Total detector events by event kind."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("pronounce.active_sessions",
		metric.WithDescription("Number of live detection sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordProcessingAttempt records one detector processing attempt with its
// outcome status.
func (m *Metrics) RecordProcessingAttempt(ctx context.Context, status string) {
	m.ProcessingAttempts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordDetectorEvent records one detector event emission by kind.
func (m *Metrics) RecordDetectorEvent(ctx context.Context, event string) {
	m.DetectorEvents.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event", event)),
	)
}
