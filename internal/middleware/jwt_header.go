package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/utils"
)

const (
	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
)

// TokenFromRequest reads x-auth-token, falling back to a Bearer Authorization header.
func TokenFromRequest(c *fiber.Ctx) string {
	if t := strings.TrimSpace(c.Get("x-auth-token")); t != "" {
		return t
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func JWTFromHeader(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := TokenFromRequest(c)
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, msgNoToken)
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
		}

		c.Locals("user", claims)
		return c.Next()
	}
}
