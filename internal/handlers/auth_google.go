package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/utils"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	Users           store.Users
	OAuth           *oauth2.Config
	UserInfoURL     string
	FrontendBaseURL string
	JWTSecret       string
	Expires         int
	Log             *logrus.Logger
}

func NewGoogleOAuthConfig(clientID, secret, redirect string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		RedirectURL:  redirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func tempCookie(name, value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   maxAge,
	}
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	next := c.Query("next", "/")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	st := utils.RandomString(32)

	c.Cookie(tempCookie("oauth_state", st, 10*60))
	c.Cookie(tempCookie("oauth_next", next, 10*60))

	return c.Redirect(h.OAuth.AuthCodeURL(st), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return fail(c, fiber.StatusBadRequest, "Missing code or state")
	}
	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return fail(c, fiber.StatusBadRequest, "Invalid state")
	}
	next := c.Cookies("oauth_next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}

	ctx := c.UserContext()
	tok, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Failed to exchange code")
	}

	gu, err := h.fetchUserInfo(c, tok)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Failed to fetch user info")
	}

	u, err := h.resolveUser(c, gu)
	if err != nil {
		return serverError(c, h.Log, err)
	}

	jwtToken, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return serverError(c, h.Log, err)
	}

	c.Cookie(tempCookie("oauth_state", "", -1))
	c.Cookie(tempCookie("oauth_next", "", -1))

	return c.Redirect(h.FrontendBaseURL+next+"#token="+jwtToken, http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) fetchUserInfo(c *fiber.Ctx, tok *oauth2.Token) (*googleUserInfo, error) {
	infoURL := h.UserInfoURL
	if infoURL == "" {
		infoURL = GoogleUserInfoURL
	}
	resp, err := h.OAuth.Client(c.UserContext(), tok).Get(infoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, err
	}
	gu.Email = strings.ToLower(strings.TrimSpace(gu.Email))
	gu.Name = strings.TrimSpace(gu.Name)
	if gu.ID == "" || gu.Email == "" {
		return nil, errors.New("userinfo: missing id or email")
	}
	return &gu, nil
}

// resolveUser finds the account by Google id, then by email (linking the
// Google id), and otherwise registers a new buyer.
func (h *GoogleOAuthHandler) resolveUser(c *fiber.Ctx, gu *googleUserInfo) (*models.User, error) {
	ctx := c.UserContext()

	u, err := h.Users.UserByGoogleID(ctx, gu.ID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	u, err = h.Users.UserByEmail(ctx, gu.Email)
	switch {
	case err == nil:
		gid := gu.ID
		u.GoogleID = &gid
		if err := h.Users.UpdateUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	hash, err := utils.HashPassword(utils.RandomString(24))
	if err != nil {
		return nil, err
	}
	name := gu.Name
	if name == "" {
		name, _, _ = strings.Cut(gu.Email, "@")
	}
	gid := gu.ID
	u = &models.User{
		Name:     name,
		Email:    gu.Email,
		Password: hash,
		Role:     models.RoleBuyer,
		GoogleID: &gid,
	}
	if err := h.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
