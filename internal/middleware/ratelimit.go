package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit keys on route and client IP. When the limiter itself fails the
// request is let through and the failure logged.
func RateLimit(l Limiter, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil {
			return c.Next()
		}
		key := c.Route().Path + ":" + c.IP()
		ok, err := l.Allow(c.UserContext(), key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
			return c.Next()
		}
		if !ok {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
		}
		return c.Next()
	}
}
