package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Alex-T-Coder/lgcy-app/internal/handlers/ws"
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/Alex-T-Coder/lgcy-app/internal/service"
	"github.com/Alex-T-Coder/lgcy-app/internal/validation"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	chatService         *service.ChatService
	notificationService *service.NotificationService
	hub                 *ws.Hub
}

func NewWebSocketHandler(chatService *service.ChatService, notificationService *service.NotificationService, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		chatService:         chatService,
		notificationService: notificationService,
		hub:                 hub,
	}
}

// GetHub returns the hub instance (used as the live-session delivery target)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)

	h.hub.Register(userID, c)
	defer h.hub.Unregister(userID)

	log.Printf("User %d connected via WebSocket", userID)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}

		env, err := ws.Decode(raw)
		if err != nil {
			ws.SendError(c, "invalid_message", "Invalid message format")
			continue
		}

		switch env.Type {
		case ws.EventPing:
			_ = c.WriteJSON(map[string]string{"type": "pong"})
		case ws.EventChat:
			h.handleChat(c, userID, env.Payload)
		case ws.EventSeen:
			h.handleSeen(c, userID, env.Payload)
		default:
			ws.SendError(c, "unknown_event", "Unknown event type")
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}

func (h *WebSocketHandler) handleChat(c *websocket.Conn, userID uint, payload json.RawMessage) {
	var event ws.ChatEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		ws.SendError(c, "invalid_payload", "Invalid chat payload")
		return
	}
	event.Text = validation.TrimAndLimit(event.Text, validation.MaxMessageLength())

	thread, err := h.chatService.AppendMessage(userID, service.AppendMessageInput{
		ReceiverID: event.ReceiverID,
		Text:       event.Text,
		File:       event.File,
	})
	if err != nil {
		ws.SendError(c, "send_failed", err.Error())
		return
	}

	// Echo the updated thread to the sender, push the newest message to the
	// receiver's live session.
	_ = c.WriteJSON(map[string]interface{}{"type": "chat", "thread": thread})
	if len(thread.Messages) > 0 {
		last := thread.Messages[len(thread.Messages)-1]
		h.hub.NotifyUser(event.ReceiverID, map[string]interface{}{
			"type":    "message",
			"message": last,
		})
	}

	// A set blocker suppresses message notifications; the message itself is
	// still stored.
	if thread.BlockerID == nil {
		go func() {
			if err := h.notificationService.FanOut(context.Background(), models.NotificationMessage, userID, event.ReceiverID, event.Text); err != nil {
				log.Printf("ws: message fan-out for user %d failed: %v", event.ReceiverID, err)
			}
		}()
	}
}

func (h *WebSocketHandler) handleSeen(c *websocket.Conn, userID uint, payload json.RawMessage) {
	var event ws.SeenEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		ws.SendError(c, "invalid_payload", "Invalid seen payload")
		return
	}

	thread, err := h.chatService.MarkSeen(event.ThreadID, event.MessageID, userID)
	if err != nil {
		ws.SendError(c, "seen_failed", err.Error())
		return
	}

	_ = c.WriteJSON(map[string]interface{}{"type": "seen", "thread": thread})
	// Tell the sender their message was seen.
	peer := thread.Sender.ID
	if peer == userID {
		peer = thread.Receiver.ID
	}
	h.hub.NotifyUser(peer, map[string]interface{}{
		"type":       "seen",
		"thread_id":  event.ThreadID,
		"message_id": event.MessageID,
	})
}
