package handler

import (
	"bufio"
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/starseekers/starseekers/internal/auth"
	"github.com/starseekers/starseekers/internal/service"
)

// SyncHandler wires HTTP → SyncService.
type SyncHandler struct {
	svc service.SyncService
}

// NewSyncHandler returns a handler instance.
func NewSyncHandler(svc service.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// Register mounts POST /sync on the given router group.
func (h *SyncHandler) Register(r fiber.Router) {
	r.Post("/sync", h.sync)
}

// sync streams progress events as newline-delimited JSON, one object per
// line. The pipeline runs on a background context: a client that drops the
// connection stops receiving events, but the sync itself runs to completion.
func (h *SyncHandler) sync(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "sign-in required")
	}

	events := h.svc.Run(context.Background(), sess.UserID, sess.AccessToken)

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		enc := json.NewEncoder(w)
		for ev := range events {
			if err := enc.Encode(ev); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Consumer went away; keep draining so the producer can
				// finish and close the channel.
				for range events {
				}
				return
			}
		}
	}))
	return nil
}
