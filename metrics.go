package logmerge

import (
	"context"
	"fmt"

	"github.com/creastat/logmerge/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/creastat/logmerge"

// Metrics records merge activity on an OpenTelemetry meter
type Metrics struct {
	emitted     metric.Int64Counter
	skipped     metric.Int64Counter
	fetchErrors metric.Int64Counter
	sinkErrors  metric.Int64Counter
	depth       metric.Int64UpDownCounter
}

// NewMetrics registers the merge instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	emitted, err := meter.Int64Counter("logmerge.entries.emitted",
		metric.WithDescription("Entries handed to the sink"),
		metric.WithUnit("{entry}"))
	if err != nil {
		return nil, fmt.Errorf("create emitted counter: %w", err)
	}
	skipped, err := meter.Int64Counter("logmerge.entries.skipped",
		metric.WithDescription("Fetches that contributed nothing to the frontier, by reason"),
		metric.WithUnit("{entry}"))
	if err != nil {
		return nil, fmt.Errorf("create skipped counter: %w", err)
	}
	fetchErrors, err := meter.Int64Counter("logmerge.fetch.errors",
		metric.WithDescription("Source fetches that returned an error"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, fmt.Errorf("create fetch error counter: %w", err)
	}
	sinkErrors, err := meter.Int64Counter("logmerge.sink.errors",
		metric.WithDescription("Sink print calls that returned an error"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, fmt.Errorf("create sink error counter: %w", err)
	}
	depth, err := meter.Int64UpDownCounter("logmerge.frontier.depth",
		metric.WithDescription("Entries currently held in the frontier"),
		metric.WithUnit("{entry}"))
	if err != nil {
		return nil, fmt.Errorf("create frontier depth counter: %w", err)
	}
	return &Metrics{
		emitted:     emitted,
		skipped:     skipped,
		fetchErrors: fetchErrors,
		sinkErrors:  sinkErrors,
		depth:       depth,
	}, nil
}

func (m *Metrics) entryEmitted(ctx context.Context, mode core.Mode) {
	m.emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}

func (m *Metrics) entrySkipped(ctx context.Context, mode core.Mode, reason core.SkipReason) {
	attrs := metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("reason", string(reason)),
	)
	m.skipped.Add(ctx, 1, attrs)
	if reason == core.SkipReasonFetchError {
		m.fetchErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
	}
}

func (m *Metrics) sinkFailed(ctx context.Context, mode core.Mode) {
	m.sinkErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}

func (m *Metrics) frontierMoved(ctx context.Context, mode core.Mode, delta int64) {
	m.depth.Add(ctx, delta, metric.WithAttributes(attribute.String("mode", string(mode))))
}
