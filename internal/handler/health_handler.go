package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports reachability of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler exposes a liveness probe covering the vector index.
type HealthHandler struct {
	index Pinger
}

// NewHealthHandler returns a handler instance.
func NewHealthHandler(index Pinger) *HealthHandler {
	return &HealthHandler{index: index}
}

// Register mounts GET /health directly on the app (no session required).
func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"index":  h.checkIndex(c.UserContext()),
	})
}

func (h *HealthHandler) checkIndex(ctx context.Context) string {
	if h.index == nil {
		return "not_configured"
	}
	if err := h.index.Ping(ctx); err != nil {
		return "error"
	}
	return "connected"
}
