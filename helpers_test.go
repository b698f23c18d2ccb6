package logmerge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"go.opentelemetry.io/otel/metric/noop"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// now is the clock used by test mergers: one day after base
var now = base.Add(24 * time.Hour)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

func entryAt(sec int, payload any) core.Entry {
	return core.Entry{Timestamp: at(sec), Payload: payload}
}

func future(payload any) core.Entry {
	return core.Entry{Timestamp: now.Add(time.Hour), Payload: payload}
}

func quietLogger() telemetry.Logger {
	return telemetry.New(telemetry.Config{Level: "error"})
}

func fixedClock() time.Time { return now }

func newTestMerger(t testing.TB, b *Builder) *Merger {
	t.Helper()
	m, err := b.WithLogger(quietLogger()).WithClock(fixedClock).Build()
	if err != nil {
		t.Fatalf("build merger: %v", err)
	}
	return m
}

func newTestRun(t testing.TB, policy core.SkipPolicy, retry core.RetryConfig) *run {
	t.Helper()
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}
	return &run{
		id:      "test-run",
		mode:    core.ModeSync,
		logger:  quietLogger(),
		guard:   Guard{Now: fixedClock},
		policy:  policy,
		retry:   retry,
		metrics: metrics,
		started: time.Now(),
	}
}

// scriptedSource replays a fixed sequence of pop results and counts calls
type scriptedSource struct {
	name  string
	steps []step
	calls int
}

type step struct {
	entry core.Entry
	err   error
	panic any
}

func script(name string, steps ...step) *scriptedSource {
	return &scriptedSource{name: name, steps: steps}
}

func give(e core.Entry) step { return step{entry: e} }

func failWith(err error) step { return step{err: err} }

func panicWith(v any) step { return step{panic: v} }

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) Pop() (core.Entry, bool, error) {
	s.calls++
	if s.calls > len(s.steps) {
		return core.Entry{}, false, nil
	}
	st := s.steps[s.calls-1]
	if st.panic != nil {
		panic(st.panic)
	}
	if st.err != nil {
		return core.Entry{}, false, st.err
	}
	return st.entry, true, nil
}

func (s *scriptedSource) PopAsync(ctx context.Context) (core.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Entry{}, false, err
	}
	return s.Pop()
}

// traceSink records the order of Print and Done calls
type traceSink struct {
	mu    sync.Mutex
	calls []string
	fail  map[any]error
}

func (s *traceSink) Print(e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "print")
	if err, ok := s.fail[e.Payload]; ok {
		return err
	}
	return nil
}

func (s *traceSink) Done() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "done")
	return nil
}
