package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

const (
	maxMessageLen  = 5000
	maxAttachments = 10
)

type MessageHandler struct {
	Messages store.Messages
	Notifier Notifier
	Log      *logrus.Logger
}

type SendMessageReq struct {
	ReceiverID  string   `json:"receiverId"`
	Content     string   `json:"content"`
	OrderID     string   `json:"orderId"`
	Attachments []string `json:"attachments"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	errs := FieldErrors{}
	receiver, err := uuid.Parse(strings.TrimSpace(req.ReceiverID))
	if err != nil {
		errs.Add("receiverId", "Receiver is required")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		errs.Add("content", "Content is required")
	} else if len(content) > maxMessageLen {
		errs.Add("content", "Content is too long")
	}
	var orderID *uuid.UUID
	if raw := strings.TrimSpace(req.OrderID); raw != "" {
		if id, err := uuid.Parse(raw); err != nil {
			errs.Add("orderId", "Order id is not valid")
		} else {
			orderID = &id
		}
	}
	attachments := trimAll(req.Attachments)
	validateURLs(errs, "attachments", attachments, maxAttachments)
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	m := models.Message{
		SenderID:    uid,
		ReceiverID:  receiver,
		Content:     content,
		OrderID:     orderID,
		Attachments: datatypes.JSONSlice[string](attachments),
	}
	ctx := c.UserContext()
	if err := h.Messages.CreateMessage(ctx, &m); err != nil {
		return serverError(c, h.Log, err)
	}

	if h.Notifier != nil {
		ev := realtime.Event{Type: realtime.EventNewMessage, Data: m}
		if err := h.Notifier.Notify(ctx, ev, m.ReceiverID, m.SenderID); err != nil {
			h.Log.WithError(err).WithField("message_id", m.ID).Warn("message notification failed")
		}
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *MessageHandler) Conversation(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}
	other, ok := paramUUID(c, "userId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	msgs, err := h.Messages.Conversation(c.UserContext(), uid, other)
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(msgs)
}
