package logmerge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
)

// cursor wraps one registered source and its exhaustion state.
// id is the registration index and never changes during a merge.
type cursor struct {
	id    int
	name  string
	fetch func(ctx context.Context) (core.Entry, bool, error)
	state core.SourceState

	fetched int
	emitted int
	retries int
	skipped map[core.SkipReason]int

	// set when the cursor stalls; reported once the sink has been told
	stallReason core.SkipReason
	stallCause  error
	reported    bool
}

func newCursor(id int, src core.AsyncSource) *cursor {
	return &cursor{
		id:      id,
		name:    sourceName(id, src),
		fetch:   src.PopAsync,
		state:   core.SourceActive,
		skipped: make(map[core.SkipReason]int),
	}
}

func newSyncCursor(id int, src core.Source) *cursor {
	return &cursor{
		id:   id,
		name: sourceName(id, src),
		fetch: func(context.Context) (core.Entry, bool, error) {
			return src.Pop()
		},
		state:   core.SourceActive,
		skipped: make(map[core.SkipReason]int),
	}
}

func sourceName(id int, src any) string {
	if n, ok := src.(core.Named); ok && n.Name() != "" {
		return n.Name()
	}
	return "source-" + strconv.Itoa(id)
}

// advance runs one turn of the source: fetch, guard, and apply the skip
// policy. It returns the entry to enqueue, or ok == false when the source
// contributes nothing this turn. A source that ends a turn without an entry
// and without signaling exhaustion is stalled; no later turn will come.
func (c *cursor) advance(ctx context.Context, r *run) (core.Entry, bool) {
	if c.state != core.SourceActive {
		return core.Entry{}, false
	}

	attempts := 1
	var wait *backoff.ExponentialBackOff
	if r.policy == core.SkipPolicyRetry {
		attempts = r.retry.MaxAttempts
		wait = newRetryBackOff(r.retry)
	}

	var (
		reason core.SkipReason
		cause  error
	)
	for attempt := 1; ; attempt++ {
		entry, ok, err := c.pop(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				c.stall(r, "", err)
				return core.Entry{}, false
			}
			reason, cause = core.SkipReasonFetchError, err
			c.skip(ctx, r, reason)
			r.logger.Error("Error fetching from source",
				telemetry.String("run_id", r.id),
				telemetry.String("source", c.name),
				telemetry.Int("source_id", c.id),
				telemetry.Int("attempt", attempt),
				telemetry.Err(err))

		case !ok:
			c.state = core.SourceExhausted
			r.logger.Debug("Source exhausted",
				telemetry.String("run_id", r.id),
				telemetry.String("source", c.name),
				telemetry.Int("fetched", c.fetched))
			return core.Entry{}, false

		default:
			c.fetched++
			gerr := r.guard.Check(entry)
			if gerr == nil {
				return entry, true
			}
			reason, cause = core.SkipReasonMalformed, gerr
			var entryErr *EntryError
			if errors.As(gerr, &entryErr) {
				reason = entryErr.Reason
			}
			c.skip(ctx, r, reason)
			r.logger.Warn("Skipping entry",
				telemetry.String("run_id", r.id),
				telemetry.String("source", c.name),
				telemetry.String("reason", string(reason)),
				telemetry.String("entry", entry.String()),
				telemetry.Err(gerr))
		}

		if attempt >= attempts {
			break
		}
		if err := sleepBackOff(ctx, wait); err != nil {
			c.stall(r, reason, err)
			return core.Entry{}, false
		}
		c.retries++
	}

	c.stall(r, reason, cause)
	return core.Entry{}, false
}

// pop calls the source, converting a panic into a fetch error
func (c *cursor) pop(ctx context.Context) (entry core.Entry, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			entry, ok = core.Entry{}, false
			err = fmt.Errorf("source %s panicked: %v\nStack trace:\n%s", c.name, rec, buf[:n])
		}
	}()
	return c.fetch(ctx)
}

func (c *cursor) skip(ctx context.Context, r *run, reason core.SkipReason) {
	c.skipped[reason]++
	r.metrics.entrySkipped(ctx, r.mode, reason)
}

// stall freezes the cursor. An empty reason means the turn was cut short by
// the context rather than by a skipped entry or failed fetch.
func (c *cursor) stall(r *run, reason core.SkipReason, cause error) {
	c.state = core.SourceStalled
	c.stallReason = reason
	c.stallCause = cause
	r.logger.Warn("Source stalled, it will not be fetched again",
		telemetry.String("run_id", r.id),
		telemetry.String("source", c.name),
		telemetry.Int("source_id", c.id),
		telemetry.String("reason", string(reason)),
		telemetry.Err(cause))
}

func (c *cursor) snapshot() SourceStats {
	skipped := make(map[core.SkipReason]int, len(c.skipped))
	for reason, n := range c.skipped {
		skipped[reason] = n
	}
	return SourceStats{
		ID:      c.id,
		Name:    c.name,
		State:   c.state,
		Fetched: c.fetched,
		Emitted: c.emitted,
		Retries: c.retries,
		Skipped: skipped,
	}
}

func newRetryBackOff(cfg core.RetryConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	b.Reset()
	return b
}

// sleepBackOff waits for the next backoff interval or until ctx is done
func sleepBackOff(ctx context.Context, b *backoff.ExponentialBackOff) error {
	d := b.NextBackOff()
	if d == backoff.Stop {
		return errors.New("retry budget exhausted")
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
