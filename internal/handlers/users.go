package handlers

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

const (
	maxNameLen      = 100
	maxBioLen       = 2000
	maxSkills       = 50
	maxSkillLen     = 50
	maxPortfolioLen = 50
)

type UserHandler struct {
	Users store.Users
	Log   *logrus.Logger
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}
	u, err := h.Users.UserByID(c.UserContext(), uid)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(u)
}

// UpdateProfileReq lists every field a user may change on their own
// profile. A nil field is left untouched.
type UpdateProfileReq struct {
	Name      *string   `json:"name"`
	Email     *string   `json:"email"`
	Bio       *string   `json:"bio"`
	Skills    *[]string `json:"skills"`
	Portfolio *[]string `json:"portfolio"`
}

func (r *UpdateProfileReq) normalize() FieldErrors {
	errs := FieldErrors{}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
		if n == "" {
			errs.Add("name", "Name is required")
		} else if utf8.RuneCountInString(n) > maxNameLen {
			errs.Add("name", "Name is too long")
		}
	}
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &e
		if e == "" {
			errs.Add("email", "Email is required")
		} else if !validEmail(e) {
			errs.Add("email", "Please include a valid email")
		}
	}
	if r.Bio != nil && utf8.RuneCountInString(*r.Bio) > maxBioLen {
		errs.Add("bio", "Bio is too long")
	}
	if r.Skills != nil {
		skills := trimAll(*r.Skills)
		r.Skills = &skills
		if len(skills) > maxSkills {
			errs.Add("skills", "Too many entries")
		}
		for _, s := range skills {
			if s == "" || utf8.RuneCountInString(s) > maxSkillLen {
				errs.Add("skills", "Each skill must be 1 to 50 characters")
				break
			}
		}
	}
	if r.Portfolio != nil {
		p := trimAll(*r.Portfolio)
		r.Portfolio = &p
		validateURLs(errs, "portfolio", p, maxPortfolioLen)
	}
	return errs
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	if errs := req.normalize(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	ctx := c.UserContext()
	u, err := h.Users.UserByID(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return serverError(c, h.Log, err)
	}

	if req.Email != nil && *req.Email != u.Email {
		other, err := h.Users.UserByEmail(ctx, *req.Email)
		if err == nil && other.ID != u.ID {
			return fail(c, fiber.StatusBadRequest, "Email already in use")
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return serverError(c, h.Log, err)
		}
		u.Email = *req.Email
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Skills != nil {
		u.Skills = datatypes.JSONSlice[string](*req.Skills)
	}
	if req.Portfolio != nil {
		u.Portfolio = datatypes.JSONSlice[string](*req.Portfolio)
	}

	if err := h.Users.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fail(c, fiber.StatusBadRequest, "Email already in use")
		}
		return serverError(c, h.Log, err)
	}
	return c.JSON(u)
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	u, err := h.Users.UserByID(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(u)
}
