package sources

import (
	"context"
	"errors"

	"github.com/creastat/logmerge/core"
)

// ErrInjected is the default error returned by Failing
var ErrInjected = errors.New("injected source failure")

// Failing wraps a source and fails exactly one pop, the failOn-th (1-based).
// The failed pop does not consume an entry of the wrapped source.
type Failing struct {
	src    core.Source
	failOn int
	err    error
	calls  int
}

// NewFailing wraps src. A nil err uses ErrInjected.
func NewFailing(src core.Source, failOn int, err error) *Failing {
	if err == nil {
		err = ErrInjected
	}
	return &Failing{
		src:    src,
		failOn: failOn,
		err:    err,
	}
}

// Name forwards the wrapped source's name
func (f *Failing) Name() string {
	if n, ok := f.src.(core.Named); ok {
		return n.Name()
	}
	return ""
}

// Pop fails on the configured call and otherwise forwards to the wrapped source
func (f *Failing) Pop() (core.Entry, bool, error) {
	f.calls++
	if f.calls == f.failOn {
		return core.Entry{}, false, f.err
	}
	return f.src.Pop()
}

// PopAsync is Pop with a context check
func (f *Failing) PopAsync(ctx context.Context) (core.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Entry{}, false, err
	}
	return f.Pop()
}

// Calls returns how many times the source was popped
func (f *Failing) Calls() int {
	return f.calls
}
