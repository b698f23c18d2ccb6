package sinks

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/creastat/logmerge/core"
)

// ErrOutOfOrder is returned by a strict Writer for an entry older than the previous one
var ErrOutOfOrder = errors.New("entry out of chronological order")

// WriterConfig holds text printer configuration
type WriterConfig struct {
	Out io.Writer

	// Strict rejects entries older than the last printed one
	Strict bool

	// Summary prints count, elapsed time and rate on Done
	Summary bool

	// Now is used to time the run; defaults to time.Now
	Now func() time.Time
}

// Writer prints one line per entry
type Writer struct {
	config  WriterConfig
	count   int
	last    time.Time
	started time.Time
}

// NewWriter creates a text printer
func NewWriter(config WriterConfig) *Writer {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Writer{
		config: config,
	}
}

// Print writes "<RFC3339 timestamp> <payload>"
func (w *Writer) Print(entry core.Entry) error {
	if w.started.IsZero() {
		w.started = w.config.Now()
	}
	if w.config.Strict && entry.Timestamp.Before(w.last) {
		return fmt.Errorf("%w: %s printed after %s", ErrOutOfOrder,
			entry.Timestamp.Format(time.RFC3339Nano), w.last.Format(time.RFC3339Nano))
	}
	if _, err := fmt.Fprintln(w.config.Out, entry.String()); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	w.count++
	w.last = entry.Timestamp
	return nil
}

// Done writes the summary block when enabled
func (w *Writer) Done() error {
	if !w.config.Summary {
		return nil
	}
	elapsed := time.Duration(0)
	if !w.started.IsZero() {
		elapsed = w.config.Now().Sub(w.started)
	}
	rate := 0.0
	if elapsed > 0 {
		rate = float64(w.count) / elapsed.Seconds()
	}
	_, err := fmt.Fprintf(w.config.Out, "\n***********************************\nLogs printed:\t\t %d\nTime taken (s):\t\t %.3f\nLogs/s:\t\t\t %.1f\n***********************************\n",
		w.count, elapsed.Seconds(), rate)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Count returns how many entries were written
func (w *Writer) Count() int {
	return w.count
}
