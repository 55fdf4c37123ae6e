package handlers

import (
	"context"
	"log"
	"strconv"

	"github.com/Alex-T-Coder/lgcy-app/internal/httpx"
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/Alex-T-Coder/lgcy-app/internal/service"
	"github.com/Alex-T-Coder/lgcy-app/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatService         *service.ChatService
	notificationService *service.NotificationService
}

func NewChatHandler(chatService *service.ChatService, notificationService *service.NotificationService) *ChatHandler {
	return &ChatHandler{
		chatService:         chatService,
		notificationService: notificationService,
	}
}

// SendMessage appends a message to the thread with the receiver, creating
// the thread on first contact, then chains the message fan-out.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.AppendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Text = validation.TrimAndLimit(input.Text, validation.MaxMessageLength())

	thread, err := h.chatService.AppendMessage(userID, input)
	if err != nil {
		return httpx.Domain(c, err, "send_message_failed")
	}

	if thread.BlockerID == nil {
		receiverID := input.ReceiverID
		text := input.Text
		go func() {
			if err := h.notificationService.FanOut(context.Background(), models.NotificationMessage, userID, receiverID, text); err != nil {
				log.Printf("chat: message fan-out for user %d failed: %v", receiverID, err)
			}
		}()
	}

	return c.Status(fiber.StatusCreated).JSON(thread)
}

// ListThreads returns the caller's conversations, newest activity first.
func (h *ChatHandler) ListThreads(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	summaries, err := h.chatService.ListForParticipant(userID)
	if err != nil {
		return httpx.Domain(c, err, "list_threads_failed")
	}

	return c.JSON(fiber.Map{"threads": summaries})
}

// ResolveThreadWithPeer opens (or returns) the conversation with one peer.
func (h *ChatHandler) ResolveThreadWithPeer(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	peerID, err := paramUint(c, "peer_id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_peer", "Invalid peer id")
	}

	thread, err := h.chatService.ResolveForPeer(userID, peerID)
	if err != nil {
		return httpx.Domain(c, err, "resolve_thread_failed")
	}

	return c.JSON(thread)
}

// GetThreadWithPeer fetches the conversation with one peer.
func (h *ChatHandler) GetThreadWithPeer(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	peerID, err := paramUint(c, "peer_id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_peer", "Invalid peer id")
	}

	thread, err := h.chatService.GetForPeer(userID, peerID)
	if err != nil {
		return httpx.Domain(c, err, "get_thread_failed")
	}

	return c.JSON(thread)
}

// MarkSeen sets seen=true on one message of a thread.
func (h *ChatHandler) MarkSeen(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	threadID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_thread", "Invalid thread id")
	}
	messageID, err := paramUint(c, "message_id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message", "Invalid message id")
	}

	thread, err := h.chatService.MarkSeen(threadID, messageID, userID)
	if err != nil {
		return httpx.Domain(c, err, "mark_seen_failed")
	}

	return c.JSON(thread)
}

// ToggleBlock flips the thread's block flag.
func (h *ChatHandler) ToggleBlock(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	threadID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_thread", "Invalid thread id")
	}

	blocker, err := h.chatService.ToggleBlock(threadID, userID)
	if err != nil {
		return httpx.Domain(c, err, "toggle_block_failed")
	}

	return c.JSON(fiber.Map{"blocker_id": blocker})
}

// DeleteThread removes the conversation and releases its attachments.
func (h *ChatHandler) DeleteThread(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	threadID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_thread", "Invalid thread id")
	}

	if err := h.chatService.DeleteThread(c.Context(), threadID, userID); err != nil {
		return httpx.Domain(c, err, "delete_thread_failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UploadAttachment stores a chat file and returns the descriptor to embed
// in a subsequent message.
func (h *ChatHandler) UploadAttachment(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "file is required")
	}
	if fileHeader.Size > validation.MaxAttachmentBytes() {
		return httpx.BadRequest(c, "file_too_large", "File exceeds the size limit")
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !validation.AllowedAttachmentMime(contentType) {
		return httpx.BadRequest(c, "unsupported_media_type", "Unsupported attachment type")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return httpx.Internal(c, "open_upload_failed")
	}
	defer f.Close()

	stored, err := h.chatService.UploadAttachment(c.Context(), fileHeader.Filename, contentType, f, fileHeader.Size)
	if err != nil {
		return httpx.Domain(c, err, "upload_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(stored)
}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
