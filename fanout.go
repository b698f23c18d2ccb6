package logmerge

import (
	"context"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"github.com/sourcegraph/conc/pool"
)

// primeResult is the settled outcome of one source's first fetch
type primeResult struct {
	cursor *cursor
	entry  core.Entry
	ok     bool
}

// fanOut issues the first fetch of every cursor without waiting for the
// others and returns at once. Each settled fetch is handed to the returned
// barrier; fetch goroutines never touch the frontier. Zero limit puts every
// first fetch in flight together. A positive limit is an opt-in bound: at
// most limit fetches run at a time and the rest are queued in registration
// order until a worker frees up.
func fanOut(ctx context.Context, r *run, cursors []*cursor, limit int) *primeBarrier {
	barrier := newPrimeBarrier(len(cursors))

	p := pool.New()
	if limit > 0 && limit < len(cursors) {
		p = p.WithMaxGoroutines(limit)
	}

	r.logger.Debug("Priming sources concurrently",
		telemetry.String("run_id", r.id),
		telemetry.Int("sources", len(cursors)),
		telemetry.Int("limit", limit))

	// p.Go blocks at the limit; release is the only wait point
	go func() {
		for _, c := range cursors {
			p.Go(func() {
				entry, ok := c.advance(ctx, r)
				barrier.settle(primeResult{cursor: c, entry: entry, ok: ok})
			})
		}
		p.Wait()
		barrier.close()
	}()

	return barrier
}
