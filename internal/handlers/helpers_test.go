package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/config"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/services/payment"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/storage"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/utils"
)

const testSecret = "test-secret"

// fakeGateway replays the first response for a repeated idempotency key, as
// Stripe does.
type fakeGateway struct {
	mu       sync.Mutex
	calls    []payment.IntentRequest
	byKey    map[string]*payment.Intent
	created  int
	err      error
	event    *payment.WebhookEvent
	eventErr error
	goodSig  string
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, req)
	if prev, ok := g.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		replay := *prev
		return &replay, nil
	}
	g.created++
	id := fmt.Sprintf("pi_%d", g.created)
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       models.PaymentStatusRequiresPaymentMethod,
	}
	if g.byKey == nil {
		g.byKey = map[string]*payment.Intent{}
	}
	replay := *intent
	g.byKey[req.IdempotencyKey] = &replay
	return intent, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, sig string) (*payment.WebhookEvent, error) {
	if sig == "" || sig != g.goodSig {
		return nil, payment.ErrBadSignature
	}
	if g.eventErr != nil {
		return nil, g.eventErr
	}
	return g.event, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type sentEvent struct {
	Event realtime.Event
	Users []uuid.UUID
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev realtime.Event, userIDs ...uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{Event: ev, Users: userIDs})
	return nil
}

func (n *recordingNotifier) sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.events...)
}

type testEnv struct {
	t        *testing.T
	app      *fiber.App
	store    *store.MemoryStore
	gateway  *fakeGateway
	notifier *recordingNotifier
	cfg      config.Config
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		JWTSecret:       testSecret,
		JWTExpiresMin:   60,
		PaymentCurrency: "usd",
		UploadDir:       t.TempDir(),
		MaxUploadBytes:  1 << 20,
	}
	e := &testEnv{
		t:        t,
		store:    store.NewMemoryStore(),
		gateway:  &fakeGateway{goodSig: "good"},
		notifier: &recordingNotifier{},
		cfg:      cfg,
	}
	e.app = NewApp(Deps{
		Config:   cfg,
		Store:    e.store,
		Notifier: e.notifier,
		Gateway:  e.gateway,
		Objects:  storage.NewLocalStore(cfg.UploadDir, ""),
		Log:      logger.Discard(),
	})
	return e
}

func (e *testEnv) request(method, path string, body interface{}, token string) (int, []byte) {
	e.t.Helper()
	return e.requestWithHeader(method, path, body, "x-auth-token", token)
}

func (e *testEnv) requestWithHeader(method, path string, body interface{}, header, value string) (int, []byte) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if value != "" {
		req.Header.Set(header, value)
	}
	return e.do(req)
}

func (e *testEnv) do(req *http.Request) (int, []byte) {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func message(t *testing.T, b []byte) string {
	t.Helper()
	return decode[map[string]interface{}](t, b)["message"].(string)
}

type account struct {
	ID    uuid.UUID
	Token string
}

func (e *testEnv) signup(name, email, role string) account {
	e.t.Helper()
	status, body := e.request("POST", "/api/auth/signup", fiber.Map{
		"name": name, "email": email, "password": "secret123", "role": role,
	}, "")
	require.Equal(e.t, 200, status, string(body))
	tok := decode[map[string]string](e.t, body)["token"]
	claims, err := utils.ParseJWT(testSecret, tok)
	require.NoError(e.t, err)
	return account{ID: uuid.MustParse(claims.UserID), Token: tok}
}

// admin inserts an admin directly; signup never grants the role.
func (e *testEnv) admin() account {
	e.t.Helper()
	_, err := EnsureAdmin(context.Background(), e.store, "Root", "root@example.com", "rootpass")
	require.NoError(e.t, err)
	u, err := e.store.UserByEmail(context.Background(), "root@example.com")
	require.NoError(e.t, err)
	tok, err := utils.SignJWT(testSecret, u.ID.String(), string(u.Role), 60)
	require.NoError(e.t, err)
	return account{ID: u.ID, Token: tok}
}

func gigBody(title string, basic, standard, premium float64) fiber.Map {
	return fiber.Map{
		"title":       title,
		"description": "I will do it well",
		"category":    "design",
		"status":      "active",
		"pricingTiers": fiber.Map{
			"basic":    fiber.Map{"price": basic, "description": "b"},
			"standard": fiber.Map{"price": standard, "description": "s"},
			"premium":  fiber.Map{"price": premium, "description": "p"},
		},
	}
}

func (e *testEnv) createGig(seller account, title string, basic, standard, premium float64) GigResponse {
	e.t.Helper()
	status, body := e.request("POST", "/api/gigs", gigBody(title, basic, standard, premium), seller.Token)
	require.Equal(e.t, 201, status, string(body))
	return decode[GigResponse](e.t, body)
}

func (e *testEnv) createOrder(buyer account, gigID, tier string) OrderResponse {
	e.t.Helper()
	status, body := e.request("POST", "/api/orders", fiber.Map{"gigId": gigID, "pricingTier": tier}, buyer.Token)
	require.Equal(e.t, 201, status, string(body))
	return decode[OrderResponse](e.t, body)
}
