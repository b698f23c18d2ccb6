package core

import (
	"fmt"
	"time"
)

// Entry is a single log record produced by a source
type Entry struct {
	// Timestamp orders the entry within its source and across the merged stream
	Timestamp time.Time

	// Payload is opaque to the merge
	Payload any
}

// String renders the entry as "<RFC3339 timestamp> <payload>"
func (e Entry) String() string {
	return fmt.Sprintf("%s %v", e.Timestamp.Format(time.RFC3339Nano), e.Payload)
}
