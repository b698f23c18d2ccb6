package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/goccy/go-json"
)

// record is one line of a JSON lines log
type record struct {
	Date time.Time `json:"date"`
	Msg  any       `json:"msg"`
}

// JSONLines decodes newline-delimited JSON records of the form
// {"date": "<RFC3339>", "msg": <any>}. A record without a date yields an
// entry with a zero timestamp, which the merge rejects as malformed.
type JSONLines struct {
	name string
	dec  *json.Decoder
	err  error
	line int
}

// NewJSONLines creates a source reading from r
func NewJSONLines(name string, r io.Reader) *JSONLines {
	return &JSONLines{
		name: name,
		dec:  json.NewDecoder(r),
	}
}

// Name returns the source name
func (j *JSONLines) Name() string {
	return j.name
}

// Pop decodes the next record. End of input exhausts the source; a decode
// error is returned on this and every later call.
func (j *JSONLines) Pop() (core.Entry, bool, error) {
	if j.err != nil {
		return core.Entry{}, false, j.err
	}
	var rec record
	if err := j.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Entry{}, false, nil
		}
		j.err = fmt.Errorf("decode %s record %d: %w", j.name, j.line+1, err)
		return core.Entry{}, false, j.err
	}
	j.line++
	return core.Entry{Timestamp: rec.Date, Payload: rec.Msg}, true, nil
}

// PopAsync is Pop with a context check
func (j *JSONLines) PopAsync(ctx context.Context) (core.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Entry{}, false, err
	}
	return j.Pop()
}
