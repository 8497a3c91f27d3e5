package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/starseekers/starseekers/internal/models"
)

// Validation bounds for search requests.
const (
	MinQueryLength = 2
	MaxTopK        = 20
	DefaultTopK    = 8
)

var (
	// ErrQueryTooShort rejects queries under MinQueryLength characters.
	ErrQueryTooShort = fmt.Errorf("query must be at least %d characters", MinQueryLength)
	// ErrInvalidTopK rejects result bounds outside 1..MaxTopK.
	ErrInvalidTopK = fmt.Errorf("topK must be between 1 and %d", MaxTopK)
)

// SearchService converts natural-language queries into embeddings and runs
// membership-filtered K-NN searches through the shared vector index.
type SearchService interface {
	// Search embeds query and returns up to topK results for userID, ordered
	// by descending similarity. topK of 0 applies DefaultTopK.
	Search(ctx context.Context, userID, query string, topK int) ([]models.VectorSearchResult, error)
}

type searchService struct {
	index    VectorIndex
	embedder Embedder
}

// NewSearchService wires the index and embedder.
func NewSearchService(index VectorIndex, embedder Embedder) SearchService {
	return &searchService{index: index, embedder: embedder}
}

func (s *searchService) Search(ctx context.Context, userID, query string, topK int) ([]models.VectorSearchResult, error) {
	if userID == "" {
		return nil, errors.New("user identity is required")
	}
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 1 || topK > MaxTopK {
		return nil, ErrInvalidTopK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	records, err := s.index.Query(ctx, vec, userID, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]models.VectorSearchResult, len(records))
	for i, rec := range records {
		results[i] = models.VectorSearchResult{
			ID:          rec.ID,
			Score:       rec.Score,
			FullName:    rec.FullName,
			Description: rec.Description,
			HTMLURL:     rec.HTMLURL,
			Language:    rec.Language,
			Topics:      rec.Topics,
		}
	}
	return results, nil
}
