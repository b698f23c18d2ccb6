package logmerge

import (
	"cmp"
	"time"

	"github.com/creastat/logmerge/core"
)

// Key orders frontier items: timestamp first, source identity second.
// Equal timestamps from different sources resolve to the earlier-registered
// source. Two items never share a Key because a source has at most one
// item queued.
type Key struct {
	At     time.Time
	Source int
}

// KeyOf derives the ordering key of an entry fetched from source
func KeyOf(entry core.Entry, source int) Key {
	return Key{At: entry.Timestamp, Source: source}
}

// Compare returns -1, 0 or +1 as k sorts before, equal to or after o
func (k Key) Compare(o Key) int {
	if c := k.At.Compare(o.At); c != 0 {
		return c
	}
	return cmp.Compare(k.Source, o.Source)
}

// Less reports whether k sorts strictly before o
func (k Key) Less(o Key) bool {
	return k.Compare(o) < 0
}
