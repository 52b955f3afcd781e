// internal/realtime/websocket.go
package realtime

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// WebSocketConn wraps websocket.Conn so hub.go does not import websocket.
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// WriteText writes one text frame, giving up after writeWait.
func (w *WebSocketConn) WriteText(msg []byte) error {
	_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.Conn.WriteMessage(websocket.TextMessage, msg)
}

func (w *WebSocketConn) WriteClose() error {
	_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (w *WebSocketConn) Read() ([]byte, error) {
	_, raw, err := w.Conn.ReadMessage()
	return raw, err
}

func (w *WebSocketConn) Close() error {
	return w.Conn.Close()
}

var pong = []byte(`{"type":"pong"}`)

// Serve registers the connection for userID and pumps events until the
// client disconnects or the hub stops. All writes go through client.Send.
func Serve(h *Hub, log *logrus.Logger, c *websocket.Conn, userID uuid.UUID) {
	client := NewClient(userID, NewWebSocketConn(c))
	conn := client.Conn
	if !h.RegisterClient(client) {
		_ = conn.Close()
		return
	}

	entry := log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": userID})
	entry.Debug("websocket: connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range client.Send {
			if err := conn.WriteText(msg); err != nil {
				entry.WithError(err).Debug("websocket: write failed")
				_ = conn.Close()
				return
			}
		}
		_ = conn.WriteClose()
	}()
	defer func() {
		h.UnregisterClient(client)
		<-writerDone
	}()

	for {
		var payload struct {
			Type string `json:"type"`
		}
		raw, err := conn.Read()
		if err != nil {
			entry.WithError(err).Debug("websocket: disconnected")
			break
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Type == "ping" {
			client.Deliver(pong)
		}
	}
}
