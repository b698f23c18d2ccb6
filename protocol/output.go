package protocol

// OutputMessageType defines server-to-client message types
type OutputMessageType string

const (
	// Streaming content
	OutputEntry OutputMessageType = "stream.entry" // One merged log entry

	// Lifecycle
	OutputDone OutputMessageType = "merge.done" // Merge complete, no entries follow

	// Errors
	OutputError OutputMessageType = "error"
)

// OutputMessage represents a message to client
type OutputMessage struct {
	Type      OutputMessageType `json:"type"`
	ID        string            `json:"id"`            // Server-generated message ID
	RunID     string            `json:"runId"`         // Merge run identifier
	Seq       int               `json:"seq,omitempty"` // 1-based position in the merged stream
	Payload   any               `json:"payload"`
	Timestamp int64             `json:"timestamp"` // Send time, unix ms
}

// EntryPayload for stream.entry
type EntryPayload struct {
	Date      string `json:"date"`      // RFC3339Nano
	UnixMilli int64  `json:"unixMilli"` // Same instant, unix ms
	Msg       any    `json:"msg"`
}

// DonePayload for merge.done
type DonePayload struct {
	Count int `json:"count"` // Entries sent before completion
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
