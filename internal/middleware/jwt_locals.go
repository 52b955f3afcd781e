package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/utils"
)

// Identity is what a verified token says about the caller.
type Identity struct {
	UserID uuid.UUID
	Role   models.Role
}

// IdentityFromClaims rejects tokens whose uid is not a UUID or whose role is unknown.
func IdentityFromClaims(claims *utils.Claims) (Identity, bool) {
	uid, err := uuid.Parse(strings.TrimSpace(claims.UserID))
	if err != nil {
		return Identity{}, false
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	if !role.Valid() {
		return Identity{}, false
	}
	return Identity{UserID: uid, Role: role}, true
}

// AttachJWTLocals copies the verified claims into the userId and role locals.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(*utils.Claims)
		if !ok || claims == nil {
			return fiber.NewError(fiber.StatusUnauthorized, msgNoToken)
		}

		id, ok := IdentityFromClaims(claims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
		}

		c.Locals("userId", id.UserID.String())
		c.Locals("role", id.Role)

		return c.Next()
	}
}
