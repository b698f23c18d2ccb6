package sinks

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(sec int, payload any) core.Entry {
	return core.Entry{Timestamp: t0.Add(time.Duration(sec) * time.Second), Payload: payload}
}

func TestCollect(t *testing.T) {
	c := NewCollect()

	require.NoError(t, c.Print(entry(1, "a")))
	require.NoError(t, c.Print(entry(2, "b")))
	require.NoError(t, c.Done())

	assert.Equal(t, []any{"a", "b"}, c.Payloads())
	assert.Len(t, c.Entries(), 2)
	assert.Equal(t, 1, c.DoneCount())
	assert.Equal(t, 0, c.PrintsAfterDone())

	require.NoError(t, c.Print(entry(3, "late")))
	assert.Equal(t, 1, c.PrintsAfterDone())
}

func TestCollectFailWhen(t *testing.T) {
	full := errors.New("full")
	c := NewCollect().FailWhen(func(e core.Entry) error {
		if e.Payload == "b" {
			return full
		}
		return nil
	})

	assert.NoError(t, c.Print(entry(1, "a")))
	assert.ErrorIs(t, c.Print(entry(2, "b")), full)
	assert.NoError(t, c.Print(entry(3, "c")))
	assert.Equal(t, []any{"a", "c"}, c.Payloads())
}

func TestWriterPrintsLines(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(WriterConfig{Out: &out})

	require.NoError(t, w.Print(entry(1, "first")))
	require.NoError(t, w.Print(entry(0, "earlier")))
	require.NoError(t, w.Done())

	assert.Equal(t, "2024-03-01T12:00:01Z first\n2024-03-01T12:00:00Z earlier\n", out.String())
	assert.Equal(t, 2, w.Count())
}

func TestWriterStrict(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(WriterConfig{Out: &out, Strict: true})

	require.NoError(t, w.Print(entry(1, "a")))
	require.NoError(t, w.Print(entry(1, "same instant")))
	err := w.Print(entry(0, "backwards"))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	require.NoError(t, w.Print(entry(2, "b")))

	assert.Equal(t, 3, w.Count())
	assert.NotContains(t, out.String(), "backwards")
}

func TestWriterSummary(t *testing.T) {
	var out bytes.Buffer
	ticks := []time.Time{t0, t0.Add(2 * time.Second)}
	now := func() time.Time {
		next := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return next
	}
	w := NewWriter(WriterConfig{Out: &out, Summary: true, Now: now})

	for i := 0; i < 4; i++ {
		require.NoError(t, w.Print(entry(i, i)))
	}
	require.NoError(t, w.Done())

	s := out.String()
	assert.Contains(t, s, "Logs printed:\t\t 4")
	assert.Contains(t, s, "Time taken (s):\t\t 2.000")
	assert.Contains(t, s, "Logs/s:\t\t\t 2.0")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterSurfacesWriteErrors(t *testing.T) {
	w := NewWriter(WriterConfig{Out: failingWriter{}, Summary: true})

	err := w.Print(entry(1, "a"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "write entry"))
	assert.Equal(t, 0, w.Count())
	assert.Error(t, w.Done())
}

func TestCollectRunIDAndStalls(t *testing.T) {
	c := NewCollect()
	c.SetRunID("run-7")
	require.NoError(t, c.SourceStalled("a", core.SkipReasonFuture, nil))

	assert.Equal(t, "run-7", c.RunID())
	assert.Equal(t, []Stall{{Source: "a", Reason: core.SkipReasonFuture}}, c.Stalls())
}
