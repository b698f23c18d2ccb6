package core

import "context"

// Source produces entries immediately, in non-decreasing timestamp order.
// Pop returns ok == false once the source is exhausted; an exhausted source
// never produces again.
type Source interface {
	Pop() (entry Entry, ok bool, err error)
}

// AsyncSource produces entries through a call that may block (I/O latency).
// PopAsync is never invoked concurrently on the same instance.
type AsyncSource interface {
	PopAsync(ctx context.Context) (entry Entry, ok bool, err error)
}

// Sink consumes the merged stream.
// Print is called once per entry in final order; Done is called exactly once
// after the last Print.
type Sink interface {
	Print(entry Entry) error
	Done() error
}

// RunAware is implemented by sinks that stamp the run id on their output.
// SetRunID is called once per merge, before the first Print.
type RunAware interface {
	SetRunID(id string)
}

// StallObserver is implemented by sinks that want to hear about sources that
// stopped contributing before exhaustion. It is called from the merge
// goroutine, never concurrently with Print, and at most once per source.
type StallObserver interface {
	SourceStalled(source string, reason SkipReason, cause error) error
}

// Named is implemented by sources that want a readable name in logs
type Named interface {
	Name() string
}

// Async adapts a synchronous source to AsyncSource.
// The context is checked before every pop.
func Async(src Source) AsyncSource {
	return asyncSource{src: src}
}

type asyncSource struct {
	src Source
}

func (a asyncSource) PopAsync(ctx context.Context) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	return a.src.Pop()
}

// Name forwards the wrapped source's name when it has one
func (a asyncSource) Name() string {
	if n, ok := a.src.(Named); ok {
		return n.Name()
	}
	return ""
}
