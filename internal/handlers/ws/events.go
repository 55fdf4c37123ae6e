package ws

import (
	"encoding/json"

	"github.com/Alex-T-Coder/lgcy-app/internal/service"
	"github.com/gofiber/websocket/v2"
)

// Envelope is the wire frame for socket events, both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	EventChat = "chat" // client -> server: append a message
	EventSeen = "seen" // client -> server: mark a message seen
	EventPing = "ping"
)

// ChatEvent mirrors the HTTP append-message input.
type ChatEvent struct {
	ReceiverID uint               `json:"receiver_id"`
	Text       string             `json:"text"`
	File       *service.FileInput `json:"file,omitempty"`
}

type SeenEvent struct {
	ThreadID  uint `json:"thread_id"`
	MessageID uint `json:"message_id"`
}

func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// SendError writes an error frame without closing the connection.
func SendError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(map[string]string{
		"type":    "error",
		"code":    code,
		"message": message,
	})
}
