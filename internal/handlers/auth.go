package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/utils"
)

type AuthHandler struct {
	Users     store.Users
	JWTSecret string
	Expires   int
	Log       *logrus.Logger
}

type SignupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // buyer / seller, admin is never accepted here
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := req.Password

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "Name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !validEmail(email) {
		errs.Add("email", "Please include a valid email")
	}
	if len(password) < 6 {
		errs.Add("password", "Please enter a password with 6 or more characters")
	} else if len(password) > utils.MaxPasswordBytes {
		errs.Add("password", fmt.Sprintf("Password must be at most %d bytes", utils.MaxPasswordBytes))
	}
	role, err := models.ParseRole(req.Role)
	if err != nil || role == models.RoleAdmin {
		errs.Add("role", "Role must be buyer or seller")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	ctx := c.UserContext()
	if _, err := h.Users.UserByEmail(ctx, email); err == nil {
		return fail(c, fiber.StatusBadRequest, "User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return serverError(c, h.Log, err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return serverError(c, h.Log, err)
	}

	u := models.User{Name: name, Email: email, Password: hash, Role: role}
	if err := h.Users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fail(c, fiber.StatusBadRequest, "User already exists")
		}
		return serverError(c, h.Log, err)
	}

	return h.issue(c, &u)
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", "Email is required")
	}
	if req.Password == "" {
		errs.Add("password", "Password is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	u, err := h.Users.UserByEmail(c.UserContext(), email)
	if errors.Is(err, store.ErrNotFound) {
		utils.BurnPasswordCheck(req.Password)
		return fail(c, fiber.StatusBadRequest, "Invalid credentials")
	}
	if err != nil {
		return serverError(c, h.Log, err)
	}
	if !utils.CheckPassword(u.Password, req.Password) {
		return fail(c, fiber.StatusBadRequest, "Invalid credentials")
	}

	return h.issue(c, u)
}

func (h *AuthHandler) issue(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// EnsureAdmin creates the admin account for email unless the email is
// already registered. It reports whether a user was created.
func EnsureAdmin(ctx context.Context, users store.Users, name, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	if len(password) > utils.MaxPasswordBytes {
		return false, fmt.Errorf("admin password: %w", utils.ErrPasswordTooLong)
	}
	if _, err := users.UserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, err
	}
	if name == "" {
		name = "Admin"
	}
	u := models.User{Name: name, Email: email, Password: hash, Role: models.RoleAdmin}
	if err := users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
