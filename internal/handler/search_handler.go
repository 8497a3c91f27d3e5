package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/starseekers/starseekers/internal/auth"
	"github.com/starseekers/starseekers/internal/models"
	"github.com/starseekers/starseekers/internal/service"
)

// SearchHandler wires HTTP → SearchService.
type SearchHandler struct {
	svc service.SearchService
}

// NewSearchHandler returns a handler instance.
func NewSearchHandler(svc service.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Register mounts POST /search on the given router group.
func (h *SearchHandler) Register(r fiber.Router) {
	r.Post("/search", h.search)
}

// search handles POST /search with body {query, topK?}.
func (h *SearchHandler) search(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "sign-in required")
	}

	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	results, err := h.svc.Search(c.UserContext(), sess.UserID, req.Query, req.TopK)
	if err != nil {
		if errors.Is(err, service.ErrQueryTooShort) || errors.Is(err, service.ErrInvalidTopK) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{"results": results})
}
