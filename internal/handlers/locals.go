package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// getUserUUID reads the caller id stored by middleware.AttachJWTLocals.
func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	switch v := c.Locals("userId").(type) {
	case string:
		return uuid.Parse(v)
	case uuid.UUID:
		return v, nil
	case nil:
		return uuid.Nil, fmt.Errorf("no caller on request")
	default:
		return uuid.Nil, fmt.Errorf("userId local has type %T", v)
	}
}
