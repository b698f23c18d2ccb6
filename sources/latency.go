package sources

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/creastat/logmerge/core"
)

// Latency turns a synchronous source into an AsyncSource whose every pop
// waits a random delay in [minDelay, maxDelay], simulating I/O
type Latency struct {
	src      core.Source
	minDelay time.Duration
	maxDelay time.Duration
}

// NewLatency wraps src. A maxDelay below minDelay is raised to minDelay.
func NewLatency(src core.Source, minDelay, maxDelay time.Duration) *Latency {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Latency{
		src:      src,
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Name forwards the wrapped source's name
func (l *Latency) Name() string {
	if n, ok := l.src.(core.Named); ok {
		return n.Name()
	}
	return ""
}

// PopAsync waits the simulated delay, then pops the wrapped source
func (l *Latency) PopAsync(ctx context.Context) (core.Entry, bool, error) {
	if d := l.delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return core.Entry{}, false, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return core.Entry{}, false, err
	}
	return l.src.Pop()
}

func (l *Latency) delay() time.Duration {
	if l.maxDelay <= l.minDelay {
		return l.minDelay
	}
	return l.minDelay + rand.N(l.maxDelay-l.minDelay+1)
}
