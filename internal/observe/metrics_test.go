package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"pronounce.infer.duration", m.InferDuration},
		{"pronounce.decode.duration", m.DecodeDuration},
		{"pronounce.score.duration", m.ScoreDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 0.456)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		md := findMetric(rm, tc.name)
		if md == nil {
			t.Errorf("metric %q not found after recording", tc.name)
			continue
		}
		hist, ok := md.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Errorf("metric %q: data type %T, want Histogram[float64]", tc.name, md.Data)
			continue
		}
		if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
			t.Errorf("metric %q: unexpected data points %+v", tc.name, hist.DataPoints)
		}
	}
}

func TestRecordProcessingAttempt_StatusAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProcessingAttempt(ctx, "ok")
	m.RecordProcessingAttempt(ctx, "ok")
	m.RecordProcessingAttempt(ctx, "error")

	rm := collect(t, reader)
	md := findMetric(rm, "pronounce.detector.attempts")
	if md == nil {
		t.Fatal("pronounce.detector.attempts not found")
	}
	sum, ok := md.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("data type %T, want Sum[int64]", md.Data)
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("data points = %d, want 2 (one per status)", len(sum.DataPoints))
	}
	byStatus := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attribute.Key("status")); found {
			byStatus[v.AsString()] = dp.Value
		}
	}
	if byStatus["ok"] != 2 || byStatus["error"] != 1 {
		t.Errorf("counts by status = %v, want ok=2 error=1", byStatus)
	}
}

func TestRecordDetectorEvent_EventAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	for _, e := range []string{"phoneme_update", "matched", "silence", "blank_trail"} {
		m.RecordDetectorEvent(ctx, e)
	}

	rm := collect(t, reader)
	md := findMetric(rm, "pronounce.detector.events")
	if md == nil {
		t.Fatal("pronounce.detector.events not found")
	}
	sum, ok := md.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("data type %T, want Sum[int64]", md.Data)
	}
	if len(sum.DataPoints) != 4 {
		t.Errorf("data points = %d, want 4 (one per event kind)", len(sum.DataPoints))
	}
}

func TestActiveSessionsUpDown(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	rm := collect(t, reader)
	md := findMetric(rm, "pronounce.active_sessions")
	if md == nil {
		t.Fatal("pronounce.active_sessions not found")
	}
	sum, ok := md.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("data type %T, want Sum[int64]", md.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("active sessions = %+v, want single data point of 1", sum.DataPoints)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different instances")
	}
}
