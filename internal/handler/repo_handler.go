package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starseekers/starseekers/internal/auth"
	"github.com/starseekers/starseekers/internal/service"
)

// RepoHandler wires HTTP → RepoService.
type RepoHandler struct {
	svc service.RepoService
}

// NewRepoHandler creates a new RepoHandler.
func NewRepoHandler(svc service.RepoService) *RepoHandler {
	return &RepoHandler{svc: svc}
}

// Register mounts GET /repositories on the given router group.
func (h *RepoHandler) Register(r fiber.Router) {
	r.Get("/repositories", h.list)
}

// list returns the caller's starred repositories as fetched live from GitHub.
func (h *RepoHandler) list(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "sign-in required")
	}

	repos, err := h.svc.ListStarred(c.UserContext(), sess.AccessToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(fiber.Map{"repos": repos})
}
