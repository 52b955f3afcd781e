package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
)

var (
	ErrWebhookDisabled = errors.New("payment: webhook secret not configured")
	ErrBadSignature    = errors.New("payment: invalid webhook signature")
)

type IntentRequest struct {
	OrderID        string
	Amount         int64 // minor units
	Currency       string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       models.PaymentStatus
}

// WebhookEvent is the part of a gateway notification the API cares about.
// IntentID is empty for events that are not about a payment intent.
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
	OrderID  string
	Status   models.PaymentStatus
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type StripeService struct {
	API           *client.API
	WebhookSecret string
}

var _ Gateway = (*StripeService)(nil)

// NewStripeService builds a client against the live Stripe API. backends may be
// nil; tests pass one pointed at a local server.
func NewStripeService(secretKey, webhookSecret string, backends *stripe.Backends) *StripeService {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeService{API: sc, WebhookSecret: webhookSecret}
}

func (s *StripeService) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("orderId", req.OrderID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := s.API.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       models.PaymentStatus(pi.Status),
	}, nil
}

func (s *StripeService) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if s.WebhookSecret == "" {
		return nil, ErrWebhookDisabled
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrBadSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || event.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	out.OrderID = pi.Metadata["orderId"]
	out.Status = models.PaymentStatus(pi.Status)
	return out, nil
}

// AmountFor converts a decimal price to minor units.
func AmountFor(price float64) int64 {
	return int64(math.Round(price * 100))
}

// IdempotencyKey names one intent-creation attempt for an order. replaces is
// the ID of the closed intent being superseded, empty on the first attempt.
func IdempotencyKey(orderID string, amount int64, replaces string) string {
	key := fmt.Sprintf("order-%s-%d", orderID, amount)
	if replaces != "" {
		key += "-after-" + replaces
	}
	return key
}
