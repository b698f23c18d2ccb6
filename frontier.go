package logmerge

import (
	"container/heap"
	"errors"

	"github.com/creastat/logmerge/core"
)

// ErrSourceQueued is returned when a source already has an item in the frontier
var ErrSourceQueued = errors.New("source already has a queued entry")

// frontierItem is the single pending entry of one active source
type frontierItem struct {
	entry  core.Entry
	cursor *cursor
	key    Key
	index  int
}

// frontier is a min-priority queue holding at most one item per source
type frontier struct {
	items    itemHeap
	bySource map[int]*frontierItem
}

func newFrontier(capacity int) *frontier {
	return &frontier{
		items:    make(itemHeap, 0, capacity),
		bySource: make(map[int]*frontierItem, capacity),
	}
}

// Insert queues entry for c. The key is computed here, never cached on the cursor.
func (f *frontier) Insert(entry core.Entry, c *cursor) error {
	if _, exists := f.bySource[c.id]; exists {
		return ErrSourceQueued
	}
	it := &frontierItem{
		entry:  entry,
		cursor: c,
		key:    KeyOf(entry, c.id),
	}
	heap.Push(&f.items, it)
	f.bySource[c.id] = it
	return nil
}

// ExtractMin removes the item with the smallest key.
// ok is false when the frontier is empty.
func (f *frontier) ExtractMin() (item *frontierItem, ok bool) {
	if len(f.items) == 0 {
		return nil, false
	}
	it := heap.Pop(&f.items).(*frontierItem)
	delete(f.bySource, it.cursor.id)
	return it, true
}

// Peek returns the item with the smallest key without removing it
func (f *frontier) Peek() (item *frontierItem, ok bool) {
	if len(f.items) == 0 {
		return nil, false
	}
	return f.items[0], true
}

// Holds reports whether source has an item queued
func (f *frontier) Holds(source int) bool {
	_, ok := f.bySource[source]
	return ok
}

func (f *frontier) IsEmpty() bool { return len(f.items) == 0 }

func (f *frontier) Len() int { return len(f.items) }

// itemHeap implements heap.Interface ordered by Key
type itemHeap []*frontierItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool { return h[i].key.Less(h[j].key) }

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	it := x.(*frontierItem)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}
