package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/services/payment"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/storage"
)

func paidOrder(t *testing.T, e *testEnv, basic float64) (account, OrderResponse) {
	t.Helper()
	seller := e.signup("Sue", "sue@example.com", "seller")
	buyer := e.signup("Bob", "bob@example.com", "buyer")
	g := e.createGig(seller, "Logo", basic, 50, 100)
	return buyer, e.createOrder(buyer, g.ID, "basic")
}

func TestCreatePaymentIntent(t *testing.T) {
	e := newEnv(t)
	buyer, o := paidOrder(t, e, 19.99)

	status, body := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	require.Equal(t, 200, status, string(body))
	assert.Equal(t, "pi_1_secret", decode[map[string]string](t, body)["clientSecret"])

	require.Equal(t, 1, e.gateway.callCount())
	req := e.gateway.calls[0]
	assert.Equal(t, int64(1999), req.Amount)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, o.ID, req.OrderID)
	assert.Equal(t, "order-"+o.ID+"-1999", req.IdempotencyKey)

	p, err := e.store.PaymentByOrder(context.Background(), uuid.MustParse(o.ID))
	require.NoError(t, err)
	assert.Equal(t, "pi_1", p.IntentID)
	assert.Equal(t, int64(1999), p.Amount)
}

func TestCreatePaymentIntentReusesOpenIntent(t *testing.T) {
	e := newEnv(t)
	buyer, o := paidOrder(t, e, 40)

	for i := 0; i < 3; i++ {
		status, body := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
		require.Equal(t, 200, status)
		assert.Equal(t, "pi_1_secret", decode[map[string]string](t, body)["clientSecret"])
	}
	assert.Equal(t, 1, e.gateway.callCount())
}

func TestCreatePaymentIntentRefusesPaidOrder(t *testing.T) {
	e := newEnv(t)
	buyer, o := paidOrder(t, e, 40)

	status, _ := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	require.Equal(t, 200, status)
	require.NoError(t, e.store.UpdatePaymentStatus(context.Background(), "pi_1", models.PaymentStatusSucceeded))

	status, body := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	assert.Equal(t, 400, status)
	assert.Equal(t, "Order already paid", message(t, body))
}

func TestCreatePaymentIntentReplacesFailedIntent(t *testing.T) {
	e := newEnv(t)
	buyer, o := paidOrder(t, e, 40)

	status, _ := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	require.Equal(t, 200, status)
	require.NoError(t, e.store.UpdatePaymentStatus(context.Background(), "pi_1", models.PaymentStatusCanceled))

	status, body := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	require.Equal(t, 200, status)
	assert.Equal(t, "pi_2_secret", decode[map[string]string](t, body)["clientSecret"])
	require.Equal(t, 2, e.gateway.callCount())
	assert.NotEqual(t, e.gateway.calls[0].IdempotencyKey, e.gateway.calls[1].IdempotencyKey)

	p, err := e.store.PaymentByOrder(context.Background(), uuid.MustParse(o.ID))
	require.NoError(t, err)
	assert.Equal(t, "pi_2", p.IntentID)

	// A second failure is replaced again under a fresh key.
	require.NoError(t, e.store.UpdatePaymentStatus(context.Background(), "pi_2", models.PaymentStatusFailed))
	status, body = e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	require.Equal(t, 200, status)
	assert.Equal(t, "pi_3_secret", decode[map[string]string](t, body)["clientSecret"])
}

func TestCreatePaymentIntentErrors(t *testing.T) {
	e := newEnv(t)
	buyer, o := paidOrder(t, e, 40)

	for _, id := range []string{uuid.NewString(), "junk"} {
		status, body := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": id}, buyer.Token)
		assert.Equal(t, 404, status)
		assert.Equal(t, "Order not found", message(t, body))
	}

	e.gateway.err = errors.New("card network down")
	status, body := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	assert.Equal(t, 500, status)
	assert.Equal(t, "Server error", string(body))
}

func TestCreatePaymentIntentWithoutGateway(t *testing.T) {
	e := newEnv(t)
	buyer, o := paidOrder(t, e, 40)

	app := NewApp(Deps{
		Config:  e.cfg,
		Store:   e.store,
		Objects: storage.NewLocalStore(e.cfg.UploadDir, ""),
		Log:     logger.Discard(),
	})
	e.app = app

	status, _ := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	assert.Equal(t, 503, status)
}

func TestWebhookRecordsStatusButLeavesOrder(t *testing.T) {
	e := newEnv(t)
	buyer, o := paidOrder(t, e, 40)

	status, _ := e.request("POST", "/api/payments/create-payment-intent", fiber.Map{"orderId": o.ID}, buyer.Token)
	require.Equal(t, 200, status)

	e.gateway.event = &payment.WebhookEvent{
		ID:       "evt_1",
		Type:     "payment_intent.succeeded",
		IntentID: "pi_1",
		OrderID:  o.ID,
		Status:   models.PaymentStatusSucceeded,
	}

	status, _ = e.request("POST", "/api/payments/webhook", fiber.Map{"id": "evt_1"}, "")
	assert.Equal(t, 400, status, "missing signature")

	req := fiber.Map{"id": "evt_1"}
	status, body := e.requestWithHeader("POST", "/api/payments/webhook", req, "Stripe-Signature", "good")
	require.Equal(t, 200, status, string(body))

	p, err := e.store.PaymentByOrder(context.Background(), uuid.MustParse(o.ID))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, p.Status)

	stored, err := e.store.OrderByID(context.Background(), uuid.MustParse(o.ID))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, stored.Status)

	e.gateway.event = &payment.WebhookEvent{ID: "evt_2", Type: "payment_intent.succeeded", IntentID: "pi_unknown"}
	status, _ = e.requestWithHeader("POST", "/api/payments/webhook", req, "Stripe-Signature", "good")
	assert.Equal(t, 200, status)
}

func TestWebhookDistinguishesSignatureFromPayload(t *testing.T) {
	e := newEnv(t)

	status, body := e.requestWithHeader("POST", "/api/payments/webhook", fiber.Map{"id": "evt_1"}, "Stripe-Signature", "forged")
	assert.Equal(t, 400, status)
	assert.Equal(t, "Invalid signature", message(t, body))

	e.gateway.eventErr = errors.New("decode payment intent: bad json")
	status, body = e.requestWithHeader("POST", "/api/payments/webhook", fiber.Map{"id": "evt_1"}, "Stripe-Signature", "good")
	assert.Equal(t, 400, status)
	assert.Equal(t, "Invalid payload", message(t, body))
}
