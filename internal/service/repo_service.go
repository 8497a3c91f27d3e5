package service

import (
	"context"

	"github.com/starseekers/starseekers/internal/models"
)

// RepoService serves the caller's live starred-repository list. Nothing is
// cached; every call goes straight to the source.
type RepoService interface {
	ListStarred(ctx context.Context, accessToken string) ([]models.StarredRepo, error)
}

type repoService struct {
	gh StarFetcher
}

// NewRepoService returns a concrete implementation.
func NewRepoService(gh StarFetcher) RepoService {
	return &repoService{gh: gh}
}

func (s *repoService) ListStarred(ctx context.Context, accessToken string) ([]models.StarredRepo, error) {
	repos, err := s.gh.FetchStarred(ctx, accessToken, fetchPageSize, 0, nil)
	if err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []models.StarredRepo{}
	}
	return repos, nil
}
