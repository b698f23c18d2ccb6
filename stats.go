package logmerge

import (
	"time"

	"github.com/creastat/logmerge/core"
)

// SourceStats summarizes one source's contribution to a merge
type SourceStats struct {
	ID      int
	Name    string
	State   core.SourceState
	Fetched int
	Emitted int
	Retries int
	Skipped map[core.SkipReason]int
}

// Stats summarizes a merge run.
// Emitted == Fetched - Dropped() holds for every completed run.
type Stats struct {
	RunID      string
	Mode       core.Mode
	Sources    []SourceStats
	Fetched    int
	Emitted    int
	SinkErrors int
	Retries    int
	Skipped    map[core.SkipReason]int
	Elapsed    time.Duration
	Completed  bool
}

// Dropped counts fetched entries the guard refused
func (s Stats) Dropped() int {
	return s.Skipped[core.SkipReasonFuture] + s.Skipped[core.SkipReasonMalformed]
}

// FetchErrors counts fetches that returned an error
func (s Stats) FetchErrors() int {
	return s.Skipped[core.SkipReasonFetchError]
}

func collectStats(r *run, cursors []*cursor) Stats {
	stats := Stats{
		RunID:      r.id,
		Mode:       r.mode,
		Sources:    make([]SourceStats, 0, len(cursors)),
		Emitted:    r.emitted,
		SinkErrors: r.sinkErrors,
		Skipped:    make(map[core.SkipReason]int),
		Elapsed:    time.Since(r.started),
	}
	for _, c := range cursors {
		s := c.snapshot()
		stats.Sources = append(stats.Sources, s)
		stats.Fetched += s.Fetched
		stats.Retries += s.Retries
		for reason, n := range s.Skipped {
			stats.Skipped[reason] += n
		}
	}
	return stats
}
