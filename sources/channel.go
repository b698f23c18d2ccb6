package sources

import (
	"context"

	"github.com/creastat/logmerge/core"
)

// Channel serves entries received on a channel. Closing the channel
// exhausts the source.
type Channel struct {
	name string
	ch   <-chan core.Entry
}

// NewChannel creates a source reading from ch
func NewChannel(name string, ch <-chan core.Entry) *Channel {
	return &Channel{
		name: name,
		ch:   ch,
	}
}

// Name returns the source name
func (c *Channel) Name() string {
	return c.name
}

// PopAsync blocks until an entry arrives, the channel is closed or ctx is done
func (c *Channel) PopAsync(ctx context.Context) (core.Entry, bool, error) {
	select {
	case <-ctx.Done():
		return core.Entry{}, false, ctx.Err()
	case e, ok := <-c.ch:
		if !ok {
			return core.Entry{}, false, nil
		}
		return e, true, nil
	}
}
