package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/starseekers/starseekers/internal/auth"
	"github.com/starseekers/starseekers/internal/config"
	"github.com/starseekers/starseekers/internal/github"
	"github.com/starseekers/starseekers/internal/handler"
	"github.com/starseekers/starseekers/internal/middleware"
	"github.com/starseekers/starseekers/internal/service"
	"github.com/starseekers/starseekers/internal/vectorstore"
)

// main is the single entry‑point for the REST API.
func main() {
	cfg := config.Load()
	log.Printf("Configuration loaded:")
	log.Printf("  - Qdrant: %s (collection %s)", cfg.QdrantAddr, cfg.QdrantCollection)
	log.Printf("  - Embedding provider: %s", cfg.EmbeddingProvider)

	ctx := context.Background()

	// Embedding service
	embedder, err := service.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	defer embedder.Close()

	// Vector index, dimensioned to match the embedding model
	index, err := vectorstore.New(ctx, cfg.QdrantAddr, cfg.QdrantCollection, embedder.Dimension())
	if err != nil {
		log.Fatalf("Failed to connect to vector index: %v", err)
	}
	defer index.Close()
	log.Printf("Connected to vector index")

	// OAuth + session signing
	authSvc, err := auth.NewService(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.OAuthRedirectURL, cfg.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}

	// GitHub API client (per-user tokens are passed per call)
	gh := github.NewClient()

	// Initialize services
	syncSvc := service.NewSyncService(gh, embedder, index)
	searchSvc := service.NewSearchService(index, embedder)
	repoSvc := service.NewRepoService(gh)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: handler.ErrorHandler,
	})

	// Add middleware
	app.Use(middleware.Logging())
	// 429 on bursts, distinguishable from other failures by its status.
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	// Register routes
	handler.RegisterRoutes(app, authSvc, gh, syncSvc, searchSvc, repoSvc)

	// Add health check
	handler.NewHealthHandler(index).Register(app)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
