package sources

import (
	"context"

	"github.com/creastat/logmerge/core"
)

// Slice serves entries from memory in the order given
type Slice struct {
	name    string
	entries []core.Entry
	next    int
}

// NewSlice creates an in-memory source. Entries must already be in
// non-decreasing timestamp order; Slice does not sort them.
func NewSlice(name string, entries ...core.Entry) *Slice {
	return &Slice{
		name:    name,
		entries: entries,
	}
}

// Name returns the source name
func (s *Slice) Name() string {
	return s.name
}

// Pop returns the next entry, or ok == false once all entries were served
func (s *Slice) Pop() (core.Entry, bool, error) {
	if s.next >= len(s.entries) {
		return core.Entry{}, false, nil
	}
	e := s.entries[s.next]
	s.next++
	return e, true, nil
}

// PopAsync is Pop with a context check
func (s *Slice) PopAsync(ctx context.Context) (core.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Entry{}, false, err
	}
	return s.Pop()
}

// Remaining returns the number of entries not yet served
func (s *Slice) Remaining() int {
	return len(s.entries) - s.next
}
