package sinks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"github.com/creastat/logmerge/protocol"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// ErrConnectionLost is returned by the first Print after the connection failed
var ErrConnectionLost = errors.New("websocket connection lost")

// WebSocketConfig holds WebSocket sink configuration
type WebSocketConfig struct {
	Conn   *websocket.Conn
	RunID  string // Stamped on every message; replaced by the merge's run id when run by a Merger
	Logger telemetry.Logger
}

// WebSocket streams merged entries to a WebSocket connection
type WebSocket struct {
	config WebSocketConfig
	mu     sync.Mutex
	runID  string
	sent   int
	lost   bool
}

// NewWebSocket creates a new WebSocket sink
func NewWebSocket(config WebSocketConfig) *WebSocket {
	return &WebSocket{
		config: config,
		runID:  config.RunID,
	}
}

// Name returns the sink name
func (ws *WebSocket) Name() string {
	return "websocket_sink"
}

// Print sends one stream.entry message.
// Once a write fails the connection is considered gone: the failure is
// returned once and later entries are dropped so the merge can finish.
func (ws *WebSocket) Print(entry core.Entry) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	logger := ws.config.Logger.WithModule(ws.Name())
	if ws.lost {
		logger.Trace("Dropping entry, connection lost", telemetry.String("run_id", ws.runID))
		return nil
	}

	msg := protocol.EntryToMessage(entry, ws.runID, ws.sent+1)
	if err := ws.write(msg); err != nil {
		ws.lost = true
		logger.Error("Failed to send message to WebSocket", telemetry.Err(err), telemetry.String("run_id", ws.runID))
		return errors.Join(ErrConnectionLost, err)
	}
	ws.sent++
	logger.Debug("Sent entry to WebSocket", telemetry.Int("seq", ws.sent), telemetry.String("run_id", ws.runID))
	return nil
}

// Done sends merge.done with the number of entries delivered
func (ws *WebSocket) Done() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	logger := ws.config.Logger.WithModule(ws.Name())
	if ws.lost {
		logger.Info("Skipping merge.done, connection lost", telemetry.String("run_id", ws.runID))
		return nil
	}
	if err := ws.write(protocol.NewDoneMessage(ws.runID, ws.sent)); err != nil {
		ws.lost = true
		return errors.Join(ErrConnectionLost, err)
	}
	logger.Info("Sent merge.done", telemetry.Int("count", ws.sent), telemetry.String("run_id", ws.runID))
	return nil
}

// SetRunID stamps id on every later message
func (ws *WebSocket) SetRunID(id string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.runID = id
}

// RunID returns the id stamped on outgoing messages
func (ws *WebSocket) RunID() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.runID
}

// SourceStalled sends an error message naming the source and why it stopped.
// The merge goes on, so a failure here marks the connection lost like Print.
func (ws *WebSocket) SourceStalled(source string, reason core.SkipReason, cause error) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.lost {
		return nil
	}
	text := fmt.Sprintf("source %s stalled", source)
	if cause != nil {
		text = fmt.Sprintf("source %s stalled: %v", source, cause)
	}
	if err := ws.write(protocol.NewErrorMessage(ws.runID, string(reason), text)); err != nil {
		ws.lost = true
		return errors.Join(ErrConnectionLost, err)
	}
	ws.config.Logger.WithModule(ws.Name()).Debug("Sent stalled source error",
		telemetry.String("run_id", ws.runID),
		telemetry.String("source", source),
		telemetry.String("reason", string(reason)))
	return nil
}

// Sent returns how many entries were delivered
func (ws *WebSocket) Sent() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.sent
}

func (ws *WebSocket) write(msg *protocol.OutputMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return ws.config.Conn.WriteMessage(websocket.TextMessage, data)
}
