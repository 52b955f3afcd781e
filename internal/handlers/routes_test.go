package handlers

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/storage"
)

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	status, body := e.request("GET", "/healthz", nil, "")
	require.Equal(t, 200, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	e.request("GET", "/api/gigs", nil, "")
	status, body = e.request("GET", "/metrics", nil, "")
	require.Equal(t, 200, status)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/api/gigs",status="200"}`)
}

func TestRouteTableDeclaresAccess(t *testing.T) {
	e := newEnv(t)
	access := map[string]Access{}
	for _, r := range Routes(Deps{Config: e.cfg, Store: e.store, Log: logger.Discard()}) {
		access[r.Method+" "+r.Path] = r.Access
	}
	assert.Equal(t, Seller, access["POST /gigs"])
	assert.Equal(t, Admin, access["GET /admin/order-stats"])
	assert.Equal(t, Public, access["GET /gigs/:id"])
	assert.Equal(t, Public, access["POST /payments/webhook"])
	assert.Equal(t, Authenticated, access["PUT /orders/:id/status"])
	assert.NotContains(t, access, "GET /auth/google/start")
}

func TestWebsocketRequiresUpgradeAndToken(t *testing.T) {
	e := newEnv(t)
	hub := realtime.NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	e.app = NewApp(Deps{
		Config:  e.cfg,
		Store:   e.store,
		Hub:     hub,
		Objects: storage.NewLocalStore(e.cfg.UploadDir, ""),
		Log:     logger.Discard(),
	})

	status, _ := e.request("GET", "/ws/messages", nil, "")
	assert.Equal(t, 426, status)

	upgrade := func(query string) int {
		req := httptest.NewRequest("GET", "/ws/messages"+query, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		status, _ := e.do(req)
		return status
	}
	assert.Equal(t, 401, upgrade(""))
	assert.Equal(t, 401, upgrade("?token=garbage"))
}

func TestWebsocketPongAndPush(t *testing.T) {
	e := newEnv(t)
	hub := realtime.NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	e.app = NewApp(Deps{
		Config:  e.cfg,
		Store:   e.store,
		Hub:     hub,
		Objects: storage.NewLocalStore(e.cfg.UploadDir, ""),
		Log:     logger.Discard(),
	})
	acct := e.signup("Wes", "wes@example.com", "buyer")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })

	conn, _, err := fastws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/messages?token="+acct.Token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteMessage(fastws.TextMessage, []byte(`{"type":"ping"}`)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(raw))

	hub.SendEvent(acct.ID, realtime.Event{Type: realtime.EventNewMessage, Data: map[string]string{"content": "hi"}})
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new_message","data":{"content":"hi"}}`, string(raw))
}

func TestIsURL(t *testing.T) {
	for in, want := range map[string]bool{
		"https://example.com/a.png": true,
		"http://localhost:3005/x":   true,
		"/uploads/u/a.png":          true,
		"/":                         false,
		"//evil.com/x":              false,
		"ftp://example.com/x":       false,
		"example.com":               false,
		"":                          false,
		"javascript:alert(1)":       false,
	} {
		assert.Equal(t, want, isURL(in), in)
	}
}
