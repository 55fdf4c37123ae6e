package handlers

import (
	"strconv"

	"github.com/Alex-T-Coder/lgcy-app/internal/httpx"
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/Alex-T-Coder/lgcy-app/internal/service"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Publish runs the fan-out for one social event with the caller as actor.
// The social core calls this when a comment, like, post, timeline follow or
// message happens.
func (h *NotificationHandler) Publish(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	input := struct {
		Type      string `json:"type"`
		SubjectID uint   `json:"subject_id"`
		Body      string `json:"body"`
	}{}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	eventType, ok := models.ParseNotificationType(input.Type)
	if !ok {
		return httpx.BadRequest(c, "invalid_event_type", "Unknown event type")
	}

	if err := h.notificationService.FanOut(c.Context(), eventType, userID, input.SubjectID, input.Body); err != nil {
		return httpx.Domain(c, err, "fan_out_failed")
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// List returns the caller's notifications, newest first. ?limit caps the
// page size.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "0"))

	notifications, err := h.notificationService.ListForRecipient(userID, limit)
	if err != nil {
		return httpx.Domain(c, err, "list_notifications_failed")
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}

// UnreadCount returns how many unread notifications the caller has.
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	count, err := h.notificationService.CountUnread(userID)
	if err != nil {
		return httpx.Domain(c, err, "unread_count_failed")
	}

	return c.JSON(fiber.Map{"unread": count})
}

// MarkRead sets one notification's read status. The body may carry
// {"status": false} to flip it back to unread.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	notificationID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_notification", "Invalid notification id")
	}

	body := struct {
		Status *bool `json:"status"`
	}{}
	// An empty body means "mark read"; only an explicit status overrides.
	_ = c.BodyParser(&body)
	read := true
	if body.Status != nil {
		read = *body.Status
	}

	if err := h.notificationService.MarkRead(notificationID, read); err != nil {
		return httpx.Domain(c, err, "mark_read_failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead clears the caller's unread backlog in one shot.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		return httpx.Domain(c, err, "mark_all_read_failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Delete removes a notification the caller created.
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	notificationID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_notification", "Invalid notification id")
	}

	if err := h.notificationService.Delete(notificationID, userID); err != nil {
		return httpx.Domain(c, err, "delete_notification_failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
