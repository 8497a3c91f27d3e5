package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/starseekers/starseekers/internal/auth"
)

// AuthUserResolver resolves the owner of a freshly exchanged access token.
type AuthUserResolver interface {
	GetAuthenticatedUser(ctx context.Context, accessToken string) (int64, string, error)
}

const stateCookie = "oauth_state"

// AuthHandler drives the GitHub OAuth login flow.
type AuthHandler struct {
	svc *auth.Service
	gh  AuthUserResolver
}

// NewAuthHandler returns a handler instance.
func NewAuthHandler(svc *auth.Service, gh AuthUserResolver) *AuthHandler {
	return &AuthHandler{svc: svc, gh: gh}
}

// Register mounts GET /login and GET /callback on the given router group.
func (h *AuthHandler) Register(r fiber.Router) {
	r.Get("/login", h.login)
	r.Get("/callback", h.callback)
}

// login redirects to GitHub's authorize page with a fresh CSRF state.
func (h *AuthHandler) login(c *fiber.Ctx) error {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate state")
	}
	state := hex.EncodeToString(buf)

	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(10 * time.Minute),
	})
	return c.Redirect(h.svc.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// callback exchanges the code, resolves the token owner, and sets the
// session cookie.
func (h *AuthHandler) callback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(stateCookie) {
		return fiber.NewError(fiber.StatusBadRequest, "oauth state mismatch")
	}
	code := c.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code parameter is required")
	}

	accessToken, err := h.svc.Exchange(c.UserContext(), code)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	userID, login, err := h.gh.GetAuthenticatedUser(c.UserContext(), accessToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	session, err := h.svc.IssueSession(strconv.FormatInt(userID, 10), login, accessToken)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    session,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(7 * 24 * time.Hour),
	})
	return c.Redirect("/", fiber.StatusTemporaryRedirect)
}
