package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "auth.session"

// RequireSession resolves the session cookie (or a Bearer token) and stores
// the identity in the request locals. Requests without a valid session get a
// 401 with a structured error payload.
func (s *Service) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "sign-in required")
		}

		sess, err := s.ParseSession(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "session is invalid or expired")
		}

		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *fiber.Ctx) (Session, bool) {
	sess, ok := c.Locals(sessionLocal).(Session)
	return sess, ok
}
