package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
)

func RequireRoles(allowed ...models.Role) fiber.Handler {
	return requireRoles("Access denied", allowed...)
}

func RequireAdmin() fiber.Handler {
	return requireRoles("Access denied. Admin only.", models.RoleAdmin)
}

func requireRoles(msg string, allowed ...models.Role) fiber.Handler {
	allowedSet := map[models.Role]bool{}
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(models.Role)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, msgNoToken)
		}
		if !allowedSet[role] {
			return fiber.NewError(fiber.StatusForbidden, msg)
		}
		return c.Next()
	}
}
