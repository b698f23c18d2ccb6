package logmerge

import (
	"context"
	"errors"
	"testing"

	"github.com/creastat/logmerge/core"
	"github.com/creastat/logmerge/sinks"
	"github.com/creastat/logmerge/sources"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectSums reads every int64 sum from reader, keyed by instrument name.
// Data points are further keyed by their "reason" attribute, empty when absent.
func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	out := make(map[string]map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			points := make(map[string]int64)
			for _, dp := range sum.DataPoints {
				reason, _ := dp.Attributes.Value(attribute.Key("reason"))
				points[reason.AsString()] += dp.Value
			}
			out[m.Name] = points
		}
	}
	return out
}

func TestMetricsRecordMerge(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m := newTestMerger(t, NewBuilder().WithMeter(provider.Meter(instrumentationName)))

	a := script("A", give(entryAt(1, "A1")), give(core.Entry{Payload: "no-date"}))
	b := script("B", give(entryAt(2, "B2")), failWith(errors.New("io")))
	c := sources.NewSlice("C", entryAt(3, "C3"), future("C-future"))
	sink := &traceSink{fail: map[any]error{"C3": errors.New("full")}}

	if _, err := m.Merge(context.Background(), []core.Source{a, b, c}, sink); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	sums := collectSums(t, reader)

	if got := sums["logmerge.entries.emitted"][""]; got != 3 {
		t.Errorf("expected 3 emitted, got %d", got)
	}
	skipped := sums["logmerge.entries.skipped"]
	if skipped[string(core.SkipReasonMalformed)] != 1 ||
		skipped[string(core.SkipReasonFetchError)] != 1 ||
		skipped[string(core.SkipReasonFuture)] != 1 {
		t.Errorf("unexpected skipped counts %v", skipped)
	}
	if got := sums["logmerge.fetch.errors"][""]; got != 1 {
		t.Errorf("expected 1 fetch error, got %d", got)
	}
	if got := sums["logmerge.sink.errors"][""]; got != 1 {
		t.Errorf("expected 1 sink error, got %d", got)
	}
	if got := sums["logmerge.frontier.depth"][""]; got != 0 {
		t.Errorf("expected empty frontier after merge, depth %d", got)
	}
}

func TestMetricsModeAttribute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m := newTestMerger(t, NewBuilder().WithMeter(provider.Meter(instrumentationName)))
	if _, err := m.MergeAsync(context.Background(), []core.AsyncSource{sources.NewSlice("A", entryAt(1, "a"))}, sinks.NewCollect()); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "logmerge.entries.emitted" {
				continue
			}
			sum := metric.Data.(metricdata.Sum[int64])
			mode, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("mode"))
			if !ok || mode.AsString() != string(core.ModeConcurrent) {
				t.Errorf("expected mode=concurrent, got %v", mode.AsString())
			}
			return
		}
	}
	t.Fatal("emitted counter not recorded")
}
