package protocol

import (
	"fmt"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EntryToMessage converts a merged entry to an output message
func EntryToMessage(entry core.Entry, runID string, seq int) *OutputMessage {
	return &OutputMessage{
		Type:  OutputEntry,
		ID:    generateMessageID(),
		RunID: runID,
		Seq:   seq,
		Payload: EntryPayload{
			Date:      entry.Timestamp.Format(time.RFC3339Nano),
			UnixMilli: entry.Timestamp.UnixMilli(),
			Msg:       entry.Payload,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewDoneMessage creates a merge.done message
func NewDoneMessage(runID string, count int) *OutputMessage {
	return &OutputMessage{
		Type:  OutputDone,
		ID:    generateMessageID(),
		RunID: runID,
		Payload: DonePayload{
			Count: count,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(runID, code, message string) *OutputMessage {
	return &OutputMessage{
		Type:  OutputError,
		ID:    generateMessageID(),
		RunID: runID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// inboundMessage mirrors OutputMessage with a raw payload
type inboundMessage struct {
	Type    OutputMessageType `json:"type"`
	RunID   string            `json:"runId"`
	Seq     int               `json:"seq"`
	Payload json.RawMessage   `json:"payload"`
}

// DecodeEntry parses a stream.entry message back into an entry.
// It is the client side of EntryToMessage.
func DecodeEntry(data []byte) (core.Entry, int, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return core.Entry{}, 0, fmt.Errorf("decode message: %w", err)
	}
	if msg.Type != OutputEntry {
		return core.Entry{}, 0, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	var payload EntryPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return core.Entry{}, 0, fmt.Errorf("decode entry payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, payload.Date)
	if err != nil {
		return core.Entry{}, 0, fmt.Errorf("decode entry date: %w", err)
	}
	return core.Entry{Timestamp: ts, Payload: payload.Msg}, msg.Seq, nil
}

// generateMessageID generates a unique message ID
func generateMessageID() string {
	return "msg-" + uuid.NewString()
}
