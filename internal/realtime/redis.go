package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const notificationPrefix = "notifications:"

// NewRedis creates a Redis client; callers ping it before relying on it.
func NewRedis(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

// Notifier pushes events to users. With Redis configured, events go through
// pub/sub so that every API instance delivers to its own connected clients;
// without it they go straight to the local hub.
type Notifier struct {
	Hub *Hub
	RDB *redis.Client
	Log *logrus.Logger
}

func NewNotifier(hub *Hub, rdb *redis.Client, log *logrus.Logger) *Notifier {
	return &Notifier{Hub: hub, RDB: rdb, Log: log}
}

// Notify sends ev once to each distinct user in userIDs.
func (n *Notifier) Notify(ctx context.Context, ev Event, userIDs ...uuid.UUID) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true

		if n.RDB == nil {
			n.Hub.SendToUser(id, payload)
			continue
		}
		if err := n.RDB.Publish(ctx, notificationPrefix+id.String(), payload).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}
	}
	return nil
}

// StartRelay subscribes to every user channel and forwards messages to the
// local hub until ctx is cancelled. It returns once the subscription is live.
func (n *Notifier) StartRelay(ctx context.Context) error {
	if n.RDB == nil {
		return nil
	}

	ps := n.RDB.PSubscribe(ctx, notificationPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}

	go func() {
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				uid, err := uuid.Parse(strings.TrimPrefix(msg.Channel, notificationPrefix))
				if err != nil {
					n.Log.WithField("channel", msg.Channel).Warn("realtime: ignoring message on unexpected channel")
					continue
				}
				n.Hub.SendToUser(uid, []byte(msg.Payload))
			}
		}
	}()
	return nil
}
