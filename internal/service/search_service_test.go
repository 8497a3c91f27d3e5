package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starseekers/starseekers/internal/models"
)

type capturingIndex struct {
	fakeIndex
	lastUserID string
	lastLimit  int
	results    []models.RepoRecord
}

func (c *capturingIndex) Query(ctx context.Context, vector []float32, userID string, limit int) ([]models.RepoRecord, error) {
	c.lastUserID = userID
	c.lastLimit = limit
	return c.results, nil
}

func TestSearch_RejectsShortQuery(t *testing.T) {
	svc := NewSearchService(&capturingIndex{}, &fakeEmbedder{})

	_, err := svc.Search(context.Background(), "42", "x", 0)
	assert.ErrorIs(t, err, ErrQueryTooShort)

	_, err = svc.Search(context.Background(), "42", "", 0)
	assert.ErrorIs(t, err, ErrQueryTooShort)
}

func TestSearch_RejectsOutOfBoundsTopK(t *testing.T) {
	svc := NewSearchService(&capturingIndex{}, &fakeEmbedder{})

	_, err := svc.Search(context.Background(), "42", "terminal ui", 25)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = svc.Search(context.Background(), "42", "terminal ui", -1)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestSearch_RequiresUserIdentity(t *testing.T) {
	svc := NewSearchService(&capturingIndex{}, &fakeEmbedder{})

	_, err := svc.Search(context.Background(), "", "terminal ui", 0)
	assert.Error(t, err)
}

func TestSearch_DefaultsTopKAndFiltersByUser(t *testing.T) {
	index := &capturingIndex{
		results: []models.RepoRecord{
			{ID: 1, Score: 0.91, FullName: "a/b", Description: "d", HTMLURL: "u", Language: "Go", Topics: []string{"t"}, StarredBy: []string{"42"}},
			{ID: 2, Score: 0.77, FullName: "c/d", Description: "d2", HTMLURL: "u2", Topics: []string{}, StarredBy: []string{"42"}},
		},
	}
	svc := NewSearchService(index, &fakeEmbedder{})

	results, err := svc.Search(context.Background(), "42", "terminal ui", 0)

	require.NoError(t, err)
	assert.Equal(t, "42", index.lastUserID)
	assert.Equal(t, DefaultTopK, index.lastLimit)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, 0.91, results[0].Score)
	assert.Equal(t, "a/b", results[0].FullName)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearch_QueryIsolationByMembership(t *testing.T) {
	// The index fake honors the starredBy filter like the real one does.
	index := newFakeIndex()
	index.records[1] = models.RepoRecord{ID: 1, FullName: "a/b", StarredBy: []string{"999"}}
	index.records[2] = models.RepoRecord{ID: 2, FullName: "c/d", StarredBy: []string{"42"}}
	svc := NewSearchService(index, &fakeEmbedder{})

	results, err := svc.Search(context.Background(), "42", "anything", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ID)
}
