package logmerge

import (
	"fmt"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Builder constructs a Merger with a fluent API
type Builder struct {
	config    Config
	logger    telemetry.Logger
	hasLogger bool
	clock     func() time.Time
	meter     metric.Meter
}

// NewBuilder creates a builder seeded with DefaultConfig
func NewBuilder() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithLogger sets the logger. Without one, a logger at Config.LogLevel is created.
func (b *Builder) WithLogger(logger telemetry.Logger) *Builder {
	b.logger = logger
	b.hasLogger = true
	return b
}

// WithClock sets the notion of "now" used to reject future-dated entries
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMeter records merge metrics on meter instead of a no-op meter
func (b *Builder) WithMeter(meter metric.Meter) *Builder {
	b.meter = meter
	return b
}

// WithSkipPolicy sets what happens to a source after a skipped entry or failed fetch
func (b *Builder) WithSkipPolicy(policy core.SkipPolicy) *Builder {
	b.config.SkipPolicy = policy
	return b
}

// WithRetry switches to SkipPolicyRetry with the given bounds
func (b *Builder) WithRetry(retry core.RetryConfig) *Builder {
	b.config.SkipPolicy = core.SkipPolicyRetry
	b.config.Retry = retry
	return b
}

// WithPrimeConcurrency caps in-flight first fetches in concurrent mode.
// Fetches beyond the cap are queued, not issued together.
func (b *Builder) WithPrimeConcurrency(n int) *Builder {
	b.config.PrimeConcurrency = n
	return b
}

// Build validates the configuration and returns the merger
func (b *Builder) Build() (*Merger, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if !b.hasLogger {
		logger = telemetry.New(telemetry.Config{Level: b.config.LogLevel})
	}

	meter := b.meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(instrumentationName)
	}
	metrics, err := NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("build merger: %w", err)
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	return &Merger{
		config:  b.config,
		logger:  logger,
		clock:   clock,
		metrics: metrics,
	}, nil
}
