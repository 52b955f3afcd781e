package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/metrics"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/services/payment"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

type PaymentStore interface {
	store.Orders
	store.Payments
}

type PaymentHandler struct {
	Store    PaymentStore
	Gateway  payment.Gateway
	Currency string
	Log      *logrus.Logger
}

type CreateIntentReq struct {
	OrderID string `json:"orderId"`
}

func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var req CreateIntentReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	orderID, err := uuid.Parse(strings.TrimSpace(req.OrderID))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}

	ctx := c.UserContext()
	o, err := h.Store.OrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	if err != nil {
		return serverError(c, h.Log, err)
	}
	if h.Gateway == nil {
		return fail(c, fiber.StatusServiceUnavailable, "Payments are not configured")
	}

	amount := payment.AmountFor(o.Price)
	currency := strings.ToLower(h.Currency)

	var replaces string
	existing, err := h.Store.PaymentByOrder(ctx, o.ID)
	switch {
	case err == nil:
		if existing.Status == models.PaymentStatusSucceeded {
			return fail(c, fiber.StatusBadRequest, "Order already paid")
		}
		if existing.Status.Open() && existing.Amount == amount &&
			existing.Currency == currency && existing.ClientSecret != "" {
			metrics.PaymentIntent("reused")
			return c.JSON(fiber.Map{"clientSecret": existing.ClientSecret})
		}
		replaces = existing.IntentID
	case !errors.Is(err, store.ErrNotFound):
		return serverError(c, h.Log, err)
	}

	intent, err := h.Gateway.CreateIntent(ctx, payment.IntentRequest{
		OrderID:        o.ID.String(),
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: payment.IdempotencyKey(o.ID.String(), amount, replaces),
	})
	if err != nil {
		metrics.PaymentIntent("error")
		return serverError(c, h.Log, err)
	}

	p := models.Payment{
		OrderID:      o.ID,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
		Status:       intent.Status,
	}
	if err := h.Store.SavePayment(ctx, &p); err != nil {
		// The gateway already holds the intent; the client can still pay it.
		h.Log.WithError(err).WithField("intent_id", intent.ID).Error("save payment failed")
	}
	metrics.PaymentIntent("created")
	return c.JSON(fiber.Map{"clientSecret": intent.ClientSecret})
}

// Webhook records the gateway's view of a payment intent. Order status is
// left to the seller.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	if h.Gateway == nil {
		return fail(c, fiber.StatusServiceUnavailable, "Payments are not configured")
	}
	ev, err := h.Gateway.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, payment.ErrWebhookDisabled):
		return fail(c, fiber.StatusServiceUnavailable, "Webhook is not configured")
	case errors.Is(err, payment.ErrBadSignature):
		return fail(c, fiber.StatusBadRequest, "Invalid signature")
	case err != nil:
		h.Log.WithError(err).Warn("webhook: unreadable event")
		return fail(c, fiber.StatusBadRequest, "Invalid payload")
	}

	entry := h.Log.WithFields(logrus.Fields{"event_id": ev.ID, "event_type": ev.Type})
	if ev.IntentID == "" {
		entry.Debug("webhook: ignored")
		return c.JSON(fiber.Map{"received": true})
	}

	err = h.Store.UpdatePaymentStatus(c.UserContext(), ev.IntentID, ev.Status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		entry.WithField("intent_id", ev.IntentID).Warn("webhook: unknown payment intent")
	case err != nil:
		return serverError(c, h.Log, err)
	default:
		entry.WithField("status", ev.Status).Info("webhook: payment updated")
	}
	return c.JSON(fiber.Map{"received": true})
}
