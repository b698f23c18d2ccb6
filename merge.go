package logmerge

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"github.com/google/uuid"
)

// Merger merges time-ordered sources into one time-ordered stream, holding at
// most one pending entry per source
type Merger struct {
	config  Config
	logger  telemetry.Logger
	clock   func() time.Time
	metrics *Metrics
}

// run is the state of one merge. The frontier is owned by the driver
// goroutine; cursors are touched concurrently only while priming, each by a
// single goroutine.
type run struct {
	id      string
	mode    core.Mode
	logger  telemetry.Logger
	guard   Guard
	policy  core.SkipPolicy
	retry   core.RetryConfig
	metrics *Metrics
	started time.Time

	emitted    int
	sinkErrors int
}

// Merge runs a synchronous merge to completion. Sources are primed one at a
// time in registration order. The sink's Done is called once every entry has
// been printed.
func (m *Merger) Merge(ctx context.Context, sources []core.Source, sink core.Sink) (Stats, error) {
	if err := validateRun(len(sources), func(i int) bool { return sources[i] == nil }, sink); err != nil {
		return Stats{}, err
	}
	cursors := make([]*cursor, len(sources))
	for i, src := range sources {
		cursors[i] = newSyncCursor(i, src)
	}
	return m.run(ctx, core.ModeSync, cursors, sink)
}

// MergeAsync runs a concurrent merge to completion. All first fetches are in
// flight at once; afterwards exactly one refill is outstanding at a time.
// Emission order does not depend on fetch completion order.
func (m *Merger) MergeAsync(ctx context.Context, sources []core.AsyncSource, sink core.Sink) (Stats, error) {
	if err := validateRun(len(sources), func(i int) bool { return sources[i] == nil }, sink); err != nil {
		return Stats{}, err
	}
	cursors := make([]*cursor, len(sources))
	for i, src := range sources {
		cursors[i] = newCursor(i, src)
	}
	return m.run(ctx, core.ModeConcurrent, cursors, sink)
}

func (m *Merger) run(ctx context.Context, mode core.Mode, cursors []*cursor, sink core.Sink) (Stats, error) {
	r := &run{
		id:      uuid.NewString(),
		mode:    mode,
		logger:  m.logger.WithModule("merge"),
		guard:   Guard{Now: m.clock},
		policy:  m.config.SkipPolicy,
		retry:   m.config.Retry,
		metrics: m.metrics,
		started: time.Now(),
	}

	r.logger.Info("Merge started",
		telemetry.String("run_id", r.id),
		telemetry.String("mode", string(mode)),
		telemetry.Int("sources", len(cursors)),
		telemetry.String("skip_policy", string(r.policy)))

	if ra, ok := sink.(core.RunAware); ok {
		ra.SetRunID(r.id)
	}

	q := newFrontier(len(cursors))

	if err := m.prime(ctx, r, cursors, q, sink); err != nil {
		r.logger.Warn("Merge aborted while priming", telemetry.String("run_id", r.id), telemetry.Err(err))
		return collectStats(r, cursors), err
	}

	if err := m.drain(ctx, r, q, sink); err != nil {
		r.logger.Warn("Merge aborted while draining",
			telemetry.String("run_id", r.id),
			telemetry.Int("emitted", r.emitted),
			telemetry.Err(err))
		return collectStats(r, cursors), err
	}

	m.complete(r, sink)

	stats := collectStats(r, cursors)
	stats.Completed = true
	r.logger.Info("Merge completed",
		telemetry.String("run_id", r.id),
		telemetry.Int("emitted", stats.Emitted),
		telemetry.Int("dropped", stats.Dropped()),
		telemetry.Int("fetch_errors", stats.FetchErrors()),
		telemetry.Int("sink_errors", stats.SinkErrors))
	return stats, nil
}

// prime seeds the frontier with at most one entry per source before any
// extraction happens
func (m *Merger) prime(ctx context.Context, r *run, cursors []*cursor, q *frontier, sink core.Sink) error {
	if r.mode == core.ModeConcurrent {
		results, err := fanOut(ctx, r, cursors, m.config.PrimeConcurrency).release(ctx)
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.ok {
				m.enqueue(ctx, r, q, res.entry, res.cursor)
			}
			m.reportStall(ctx, r, sink, res.cursor)
		}
		return nil
	}

	for _, c := range cursors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry, ok := c.advance(ctx, r); ok {
			m.enqueue(ctx, r, q, entry, c)
		}
		m.reportStall(ctx, r, sink, c)
	}
	return nil
}

// drain extracts the minimum, emits it and refills from the same source
// until the frontier is empty
func (m *Merger) drain(ctx context.Context, r *run, q *frontier, sink core.Sink) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, ok := q.ExtractMin()
		if !ok {
			return nil
		}
		r.metrics.frontierMoved(ctx, r.mode, -1)

		m.emit(ctx, r, sink, item)

		if entry, ok := item.cursor.advance(ctx, r); ok {
			m.enqueue(ctx, r, q, entry, item.cursor)
		}
		m.reportStall(ctx, r, sink, item.cursor)
	}
}

func (m *Merger) enqueue(ctx context.Context, r *run, q *frontier, entry core.Entry, c *cursor) {
	if err := q.Insert(entry, c); err != nil {
		r.logger.Error("Frontier rejected entry",
			telemetry.String("run_id", r.id),
			telemetry.String("source", c.name),
			telemetry.Err(err))
		return
	}
	r.metrics.frontierMoved(ctx, r.mode, 1)
}

// emit prints one entry. A failing sink is logged and does not stop the merge.
func (m *Merger) emit(ctx context.Context, r *run, sink core.Sink, item *frontierItem) {
	r.emitted++
	item.cursor.emitted++
	r.metrics.entryEmitted(ctx, r.mode)

	if err := safeCall(func() error { return sink.Print(item.entry) }); err != nil {
		r.sinkErrors++
		r.metrics.sinkFailed(ctx, r.mode)
		r.logger.Error("Error printing entry",
			telemetry.String("run_id", r.id),
			telemetry.String("source", item.cursor.name),
			telemetry.String("entry", item.entry.String()),
			telemetry.Err(err))
		return
	}
	r.logger.Trace("Printed entry",
		telemetry.String("run_id", r.id),
		telemetry.String("source", item.cursor.name),
		telemetry.Int("emitted", r.emitted))
}

// reportStall tells a StallObserver sink about a source that stalled on its
// last turn. Stalls caused by cancellation are not reported.
func (m *Merger) reportStall(ctx context.Context, r *run, sink core.Sink, c *cursor) {
	if c.state != core.SourceStalled || c.reported || c.stallReason == "" || ctx.Err() != nil {
		return
	}
	c.reported = true
	obs, ok := sink.(core.StallObserver)
	if !ok {
		return
	}
	if err := safeCall(func() error { return obs.SourceStalled(c.name, c.stallReason, c.stallCause) }); err != nil {
		r.logger.Error("Error reporting stalled source",
			telemetry.String("run_id", r.id),
			telemetry.String("source", c.name),
			telemetry.Err(err))
	}
}

// complete signals the sink exactly once, after the last emit
func (m *Merger) complete(r *run, sink core.Sink) {
	if err := safeCall(sink.Done); err != nil {
		r.logger.Error("Error signaling completion", telemetry.String("run_id", r.id), telemetry.Err(err))
	}
}

// safeCall converts a panic in sink code into an error
func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("sink panicked: %v\nStack trace:\n%s", rec, buf[:n])
		}
	}()
	return fn()
}

// Merge runs a synchronous merge with DefaultConfig
func Merge(ctx context.Context, sources []core.Source, sink core.Sink) error {
	m, err := NewBuilder().Build()
	if err != nil {
		return err
	}
	_, err = m.Merge(ctx, sources, sink)
	return err
}

// MergeAsync runs a concurrent merge with DefaultConfig
func MergeAsync(ctx context.Context, sources []core.AsyncSource, sink core.Sink) error {
	m, err := NewBuilder().Build()
	if err != nil {
		return err
	}
	_, err = m.MergeAsync(ctx, sources, sink)
	return err
}
