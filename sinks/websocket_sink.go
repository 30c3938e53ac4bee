package sinks

import (
	"context"
	"encoding/json"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
	"github.com/creastat/quorum/protocol"
	"github.com/gorilla/websocket"
)

// WebSocketSinkConfig holds WebSocket sink configuration
type WebSocketSinkConfig struct {
	Conn   *websocket.Conn
	RunID  string
	Logger telemetry.Logger
}

// WebSocketSink streams run events to a WebSocket connection. It is the
// optional streaming view of already-collected decisions; the run itself never
// depends on it.
type WebSocketSink struct {
	config WebSocketSinkConfig
}

// NewWebSocketSink creates a new WebSocket sink
func NewWebSocketSink(config WebSocketSinkConfig) *WebSocketSink {
	return &WebSocketSink{
		config: config,
	}
}

// Name returns the sink name
func (ws *WebSocketSink) Name() string {
	return "websocket_sink"
}

// Process reads run events from the input channel and sends them to the
// WebSocket connection until the channel closes or the context is cancelled
func (ws *WebSocketSink) Process(ctx context.Context, input <-chan core.Event) error {
	logger := ws.config.Logger.WithModule(ws.Name())
	logger.Info("Starting WebSocket sink", telemetry.String("run_id", ws.config.RunID))

	for {
		select {
		case <-ctx.Done():
			logger.Info("WebSocket sink context cancelled", telemetry.String("run_id", ws.config.RunID))
			return ctx.Err()

		case event, ok := <-input:
			if !ok {
				logger.Info("WebSocket sink input channel closed", telemetry.String("run_id", ws.config.RunID))
				return nil
			}

			msg := protocol.EventToMessage(event, ws.config.RunID)
			if msg == nil {
				continue
			}

			data, err := json.Marshal(msg)
			if err != nil {
				logger.Error("Failed to marshal message", telemetry.Err(err))
				continue
			}

			if err := ws.config.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Error("Failed to write message", telemetry.Err(err))
				return err
			}

			logger.Trace("Sent message",
				telemetry.String("run_id", ws.config.RunID),
				telemetry.String("type", string(msg.Type)))
		}
	}
}
