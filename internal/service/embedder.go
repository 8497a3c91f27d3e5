package service

import (
	"context"
	"fmt"

	"github.com/starseekers/starseekers/internal/config"
)

// Embedder converts text into fixed-length float vectors. Batch results must
// correspond to the input order exactly.
type Embedder interface {
	// Embed converts a single text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch converts a batch of texts in one request, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector length this provider produces.
	Dimension() int
	// Close releases client resources.
	Close() error
}

// NewEmbedder selects the embedding provider from configuration.
func NewEmbedder(ctx context.Context, cfg config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "", "openai":
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey)
	case "vertex":
		return NewVertexEmbedder(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.GCPCredentialsFile)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}
