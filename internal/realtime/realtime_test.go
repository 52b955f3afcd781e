package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(logger.Discard())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHubDeliversOnlyToAddressedUser(t *testing.T) {
	h, _ := startHub(t)
	alice, bob := uuid.New(), uuid.New()

	a1 := NewClient(alice, nil)
	a2 := NewClient(alice, nil)
	b := NewClient(bob, nil)
	for _, c := range []*Client{a1, a2, b} {
		require.True(t, h.RegisterClient(c))
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 3 }, time.Second, 10*time.Millisecond)

	h.SendEvent(alice, Event{Type: EventNewMessage, Data: "hi"})

	assert.Equal(t, EventNewMessage, receive(t, a1).Type)
	assert.Equal(t, EventNewMessage, receive(t, a2).Type)
	assert.Empty(t, b.Send)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h, _ := startHub(t)
	c := NewClient(uuid.New(), nil)
	require.True(t, h.RegisterClient(c))
	h.UnregisterClient(c)

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, c.Deliver([]byte("late")))
}

func TestHubStopsOnCancel(t *testing.T) {
	h, cancel := startHub(t)
	c := NewClient(uuid.New(), nil)
	require.True(t, h.RegisterClient(c))
	cancel()

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, h.RegisterClient(NewClient(uuid.New(), nil)))
	h.UnregisterClient(c)
}

func TestNotifierWithoutRedisUsesHub(t *testing.T) {
	h, _ := startHub(t)
	user := uuid.New()
	c := NewClient(user, nil)
	require.True(t, h.RegisterClient(c))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	n := NewNotifier(h, nil, logger.Discard())
	require.NoError(t, n.StartRelay(context.Background()))
	require.NoError(t, n.Notify(context.Background(), Event{Type: EventOrderStatusUpdate}, user, user))

	assert.Equal(t, EventOrderStatusUpdate, receive(t, c).Type)
	assert.Empty(t, c.Send, "duplicate recipients are notified once")
}

func TestNotifierRelaysThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedis(mr.Addr(), "")
	t.Cleanup(func() { _ = rdb.Close() })

	h, _ := startHub(t)
	user := uuid.New()
	c := NewClient(user, nil)
	require.True(t, h.RegisterClient(c))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(h, rdb, logger.Discard())
	require.NoError(t, n.StartRelay(ctx))

	require.NoError(t, n.Notify(ctx, Event{Type: EventNewMessage, Data: map[string]string{"content": "yo"}}, user))

	ev := receive(t, c)
	assert.Equal(t, EventNewMessage, ev.Type)
	assert.Equal(t, map[string]interface{}{"content": "yo"}, ev.Data)
}
