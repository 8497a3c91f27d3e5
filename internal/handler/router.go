package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starseekers/starseekers/internal/auth"
	"github.com/starseekers/starseekers/internal/service"
)

// RegisterRoutes mounts the public auth flow and the session-protected API.
func RegisterRoutes(app *fiber.App,
	authSvc *auth.Service,
	gh AuthUserResolver,
	syncSvc service.SyncService,
	searchSvc service.SearchService,
	repoSvc service.RepoService,
) {
	NewAuthHandler(authSvc, gh).Register(app.Group("/auth"))

	v1 := app.Group("/api/v1", authSvc.RequireSession())
	NewSyncHandler(syncSvc).Register(v1)
	NewSearchHandler(searchSvc).Register(v1)
	NewRepoHandler(repoSvc).Register(v1)
}
