package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/utils"
)

const secret = "test-secret"

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
			}
			return c.Status(500).SendString("Server error")
		},
	})
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userId": c.Locals("userId"), "role": c.Locals("role")})
	})
	app.Get("/x", handlers...)
	return app
}

func do(t *testing.T, app *fiber.App, header, value string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", "/x", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(b, &body)
	return resp.StatusCode, body
}

func sign(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := utils.SignJWT(secret, uid, role, 60)
	require.NoError(t, err)
	return tok
}

func TestAuthMissingToken(t *testing.T) {
	app := newApp(JWTFromHeader(secret), AttachJWTLocals())
	status, body := do(t, app, "", "")
	assert.Equal(t, 401, status)
	assert.Equal(t, "No token, authorization denied", body["message"])
}

func TestAuthInvalidToken(t *testing.T) {
	app := newApp(JWTFromHeader(secret), AttachJWTLocals())

	status, body := do(t, app, "x-auth-token", "garbage")
	assert.Equal(t, 401, status)
	assert.Equal(t, "Token is not valid", body["message"])

	other, err := utils.SignJWT("other-secret", uuid.NewString(), "buyer", 60)
	require.NoError(t, err)
	status, _ = do(t, app, "x-auth-token", other)
	assert.Equal(t, 401, status)

	status, body = do(t, app, "x-auth-token", sign(t, uuid.NewString(), "superuser"))
	assert.Equal(t, 401, status)
	assert.Equal(t, "Token is not valid", body["message"])

	status, _ = do(t, app, "x-auth-token", sign(t, "not-a-uuid", "buyer"))
	assert.Equal(t, 401, status)
}

func TestAuthAcceptsHeaderAndBearer(t *testing.T) {
	app := newApp(JWTFromHeader(secret), AttachJWTLocals())
	uid := uuid.NewString()

	status, body := do(t, app, "x-auth-token", sign(t, uid, "seller"))
	require.Equal(t, 200, status)
	assert.Equal(t, uid, body["userId"])
	assert.Equal(t, "seller", body["role"])

	status, body = do(t, app, "Authorization", "Bearer "+sign(t, uid, "buyer"))
	require.Equal(t, 200, status)
	assert.Equal(t, "buyer", body["role"])
}

func TestRequireAdmin(t *testing.T) {
	app := newApp(JWTFromHeader(secret), AttachJWTLocals(), RequireAdmin())

	status, body := do(t, app, "x-auth-token", sign(t, uuid.NewString(), "seller"))
	assert.Equal(t, 403, status)
	assert.Equal(t, "Access denied. Admin only.", body["message"])

	status, _ = do(t, app, "x-auth-token", sign(t, uuid.NewString(), "admin"))
	assert.Equal(t, 200, status)
}

func TestRequireRoles(t *testing.T) {
	app := newApp(JWTFromHeader(secret), AttachJWTLocals(), RequireRoles(models.RoleSeller))

	status, body := do(t, app, "x-auth-token", sign(t, uuid.NewString(), "buyer"))
	assert.Equal(t, 403, status)
	assert.Equal(t, "Access denied", body["message"])

	status, _ = do(t, app, "x-auth-token", sign(t, uuid.NewString(), "seller"))
	assert.Equal(t, 200, status)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	blocked := &stubLimiter{allow: false}
	status, body := do(t, newApp(RateLimit(blocked, logger.Discard())), "", "")
	assert.Equal(t, 429, status)
	assert.Equal(t, "Too many requests", body["message"])
	require.Len(t, blocked.keys, 1)
	assert.Contains(t, blocked.keys[0], "/x:")

	broken := &stubLimiter{err: errors.New("redis down")}
	status, _ = do(t, newApp(RateLimit(broken, logger.Discard())), "", "")
	assert.Equal(t, 200, status)

	status, _ = do(t, newApp(RateLimit(nil, logger.Discard())), "", "")
	assert.Equal(t, 200, status)
}
