package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/middleware"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/utils"
)

type WSHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
	Log       *logrus.Logger
}

// Upgrade authenticates the ?token= query parameter (browsers cannot set
// headers on websocket requests) and stores the caller for Serve.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	tok := c.Query("token")
	if tok == "" {
		tok = middleware.TokenFromRequest(c)
	}
	if tok == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "No token, authorization denied")
	}
	claims, err := utils.ParseJWT(h.JWTSecret, tok)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Token is not valid")
	}
	id, ok := middleware.IdentityFromClaims(claims)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Token is not valid")
	}
	c.Locals("userId", id.UserID.String())
	return c.Next()
}

func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		raw, _ := c.Locals("userId").(string)
		uid, err := uuid.Parse(raw)
		if err != nil {
			_ = c.Close()
			return
		}
		realtime.Serve(h.Hub, h.Log, c, uid)
	})
}
