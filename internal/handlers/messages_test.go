package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
)

func TestConversationIsSymmetric(t *testing.T) {
	e := newEnv(t)
	a := e.signup("Ann", "ann@example.com", "buyer")
	b := e.signup("Ben", "ben@example.com", "seller")
	c := e.signup("Cat", "cat@example.com", "buyer")

	send := func(from account, to uuid.UUID, content string) {
		status, body := e.request("POST", "/api/messages", fiber.Map{"receiverId": to.String(), "content": content}, from.Token)
		require.Equal(t, 201, status, string(body))
	}
	send(a, b.ID, "hi")
	send(b, a.ID, "hello")
	send(c, a.ID, "unrelated")
	send(a, b.ID, "deal?")

	history := func(caller account, other uuid.UUID) []models.Message {
		status, body := e.request("GET", "/api/messages/"+other.String(), nil, caller.Token)
		require.Equal(t, 200, status)
		return decode[[]models.Message](t, body)
	}

	fromA := history(a, b.ID)
	fromB := history(b, a.ID)
	require.Len(t, fromA, 3)
	assert.Equal(t, fromA, fromB)
	assert.Equal(t, "hi", fromA[0].Content)
	assert.Equal(t, "hello", fromA[1].Content)
	assert.Equal(t, "deal?", fromA[2].Content)
}

func TestSendMessageValidation(t *testing.T) {
	e := newEnv(t)
	a := e.signup("Ann", "ann@example.com", "buyer")

	cases := []struct {
		name  string
		body  fiber.Map
		field string
	}{
		{"empty content", fiber.Map{"receiverId": uuid.NewString(), "content": "  "}, "content"},
		{"bad receiver", fiber.Map{"receiverId": "x", "content": "hi"}, "receiverId"},
		{"bad order", fiber.Map{"receiverId": uuid.NewString(), "content": "hi", "orderId": "x"}, "orderId"},
		{"bad attachment", fiber.Map{"receiverId": uuid.NewString(), "content": "hi", "attachments": []string{"x"}}, "attachments"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := e.request("POST", "/api/messages", tc.body, a.Token)
			require.Equal(t, 400, status)
			errs := decode[struct {
				Errors map[string][]string `json:"errors"`
			}](t, body).Errors
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestSendMessagePushesToBothUsers(t *testing.T) {
	e := newEnv(t)
	a := e.signup("Ann", "ann@example.com", "buyer")
	receiver := uuid.New()
	orderID := uuid.New()

	status, body := e.request("POST", "/api/messages", fiber.Map{
		"receiverId":  receiver.String(),
		"content":     "see attached",
		"orderId":     orderID.String(),
		"attachments": []string{"https://example.com/brief.pdf"},
	}, a.Token)
	require.Equal(t, 201, status, string(body))

	m := decode[models.Message](t, body)
	assert.Equal(t, a.ID, m.SenderID)
	require.NotNil(t, m.OrderID)
	assert.Equal(t, orderID, *m.OrderID)

	sent := e.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, realtime.EventNewMessage, sent[0].Event.Type)
	assert.Equal(t, []uuid.UUID{receiver, a.ID}, sent[0].Users)
}

func TestConversationRejectsMalformedID(t *testing.T) {
	e := newEnv(t)
	a := e.signup("Ann", "ann@example.com", "buyer")

	status, _ := e.request("GET", "/api/messages/not-a-uuid", nil, a.Token)
	assert.Equal(t, 400, status)
}
