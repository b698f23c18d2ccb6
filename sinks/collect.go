package sinks

import (
	"sync"

	"github.com/creastat/logmerge/core"
)

// Stall is one stalled-source report received by Collect
type Stall struct {
	Source string
	Reason core.SkipReason
	Cause  error
}

// Collect records everything it is given. It is safe for concurrent use.
type Collect struct {
	mu              sync.Mutex
	runID           string
	entries         []core.Entry
	stalls          []Stall
	done            int
	printsAfterDone int
	fail            func(core.Entry) error
}

// NewCollect creates an empty recorder
func NewCollect() *Collect {
	return &Collect{}
}

// FailWhen makes Print return fn's error for matching entries.
// Failed entries are not recorded.
func (c *Collect) FailWhen(fn func(core.Entry) error) *Collect {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fn
	return c
}

// Print records the entry
func (c *Collect) Print(entry core.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done > 0 {
		c.printsAfterDone++
	}
	if c.fail != nil {
		if err := c.fail(entry); err != nil {
			return err
		}
	}
	c.entries = append(c.entries, entry)
	return nil
}

// Done records the completion signal
func (c *Collect) Done() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done++
	return nil
}

// SetRunID records the run id handed over by the merge
func (c *Collect) SetRunID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runID = id
}

// RunID returns the recorded run id
func (c *Collect) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// SourceStalled records the report
func (c *Collect) SourceStalled(source string, reason core.SkipReason, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stalls = append(c.stalls, Stall{Source: source, Reason: reason, Cause: cause})
	return nil
}

// Stalls returns the stalled-source reports in arrival order
func (c *Collect) Stalls() []Stall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Stall, len(c.stalls))
	copy(out, c.stalls)
	return out
}

// Entries returns a copy of the recorded entries in print order
func (c *Collect) Entries() []core.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Payloads returns the recorded payloads in print order
func (c *Collect) Payloads() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Payload
	}
	return out
}

// DoneCount returns how many times Done was called
func (c *Collect) DoneCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// PrintsAfterDone returns how many Print calls arrived after Done
func (c *Collect) PrintsAfterDone() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.printsAfterDone
}
