package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starseekers/starseekers/internal/github"
	"github.com/starseekers/starseekers/internal/models"
)

// ---- Fakes -----------------------------------------------------------------

type fakeFetcher struct {
	repos []models.StarredRepo
	err   error
}

func (f *fakeFetcher) FetchStarred(ctx context.Context, token string, perPage, maxPages int, onPage github.ProgressFunc) ([]models.StarredRepo, error) {
	if f.err != nil {
		return nil, f.err
	}
	if onPage != nil {
		onPage(github.PageProgress{Page: 1, Fetched: len(f.repos), TotalFetched: len(f.repos)})
	}
	return f.repos, nil
}

type fakeEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	probeCalls int
	batchErr   error
}

func textVector(text string) []float32 {
	return []float32{float32(len(text)), 1, 0}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	return textVector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.batchCalls++
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = textVector(text)
	}
	return vecs, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }
func (f *fakeEmbedder) Close() error   { return nil }

type fakeIndex struct {
	mu      sync.Mutex
	records map[int64]models.RepoRecord
	upserts int
	patches int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: map[int64]models.RepoRecord{}}
}

func (f *fakeIndex) FetchRecords(ctx context.Context, ids []int64) (map[int64]models.RepoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]models.RepoRecord{}
	for _, id := range ids {
		if rec, ok := f.records[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (f *fakeIndex) UpsertRecords(ctx context.Context, records []models.RepoRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	for _, rec := range records {
		f.records[rec.ID] = rec
	}
	return nil
}

func (f *fakeIndex) SetStarredBy(ctx context.Context, id int64, starredBy []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches++
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("no record %d", id)
	}
	rec.StarredBy = starredBy
	f.records[id] = rec
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, userID string, limit int) ([]models.RepoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RepoRecord
	for _, rec := range f.records {
		if rec.Starred(userID) && len(out) < limit {
			rec.Score = 0.9
			out = append(out, rec)
		}
	}
	return out, nil
}

// ---- Helpers ---------------------------------------------------------------

func testRepos(n int) []models.StarredRepo {
	repos := make([]models.StarredRepo, n)
	for i := range repos {
		repos[i] = models.StarredRepo{
			ID:          int64(i + 1),
			FullName:    fmt.Sprintf("owner/repo-%d", i+1),
			Description: fmt.Sprintf("repository number %d", i+1),
			HTMLURL:     fmt.Sprintf("https://github.com/owner/repo-%d", i+1),
			Language:    "Go",
			Topics:      []string{"testing"},
		}
	}
	return repos
}

func drain(events <-chan models.SyncEvent) []models.SyncEvent {
	var out []models.SyncEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func runSync(t *testing.T, fetcher *fakeFetcher, embedder *fakeEmbedder, index *fakeIndex, userID string) []models.SyncEvent {
	t.Helper()
	svc := NewSyncService(fetcher, embedder, index)
	return drain(svc.Run(context.Background(), userID, "token"))
}

// ---- Tests -----------------------------------------------------------------

func TestSync_EndToEnd_FreshIndex(t *testing.T) {
	fetcher := &fakeFetcher{repos: testRepos(3)}
	embedder := &fakeEmbedder{}
	index := newFakeIndex()

	events := runSync(t, fetcher, embedder, index, "42")

	require.Len(t, events, 5)
	assert.Equal(t, models.NewStartEvent(), events[0])
	assert.Equal(t, models.NewFetchEvent(1, 3, 3), events[1])
	assert.Equal(t, models.NewEmbedEvent(3, 3), events[2])
	assert.Equal(t, models.NewUpsertEvent(3, 3), events[3])
	assert.Equal(t, models.NewCompleteEvent(3, 3), events[4])

	require.Len(t, index.records, 3)
	for _, rec := range index.records {
		assert.Equal(t, []string{"42"}, rec.StarredBy)
		assert.NotEmpty(t, rec.Hash)
		assert.NotEmpty(t, rec.Vector)
	}
}

func TestSync_Idempotent(t *testing.T) {
	fetcher := &fakeFetcher{repos: testRepos(3)}
	embedder := &fakeEmbedder{}
	index := newFakeIndex()

	runSync(t, fetcher, embedder, index, "42")
	batchCallsAfterFirst := embedder.batchCalls
	upsertsAfterFirst := index.upserts

	events := runSync(t, fetcher, embedder, index, "42")

	assert.Equal(t, batchCallsAfterFirst, embedder.batchCalls, "second run must not re-embed")
	assert.Equal(t, upsertsAfterFirst, index.upserts, "second run must not re-upsert")
	terminal := events[len(events)-1]
	assert.Equal(t, models.NewCompleteEvent(0, 3), terminal)
}

func TestSync_DescriptionChangeTriggersReembedding(t *testing.T) {
	repos := testRepos(2)
	fetcher := &fakeFetcher{repos: repos}
	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	runSync(t, fetcher, embedder, index, "42")

	changed := testRepos(2)
	changed[1].Description = "completely rewritten"
	fetcher.repos = changed

	events := runSync(t, fetcher, embedder, index, "42")

	assert.Equal(t, models.NewCompleteEvent(1, 2), events[len(events)-1])
	assert.Equal(t, changed[1].Fingerprint(), index.records[2].Hash)
}

func TestSync_NewAssociation_MetadataPatchOnly(t *testing.T) {
	repos := testRepos(1)
	fetcher := &fakeFetcher{repos: repos}
	index := newFakeIndex()

	// Another user already indexed the same repository.
	firstEmbedder := &fakeEmbedder{}
	runSync(t, fetcher, firstEmbedder, index, "999")

	embedder := &fakeEmbedder{}
	events := runSync(t, fetcher, embedder, index, "42")

	assert.Zero(t, embedder.batchCalls, "matching fingerprint must not be re-embedded")
	assert.Equal(t, models.NewCompleteEvent(0, 1), events[len(events)-1])
	assert.ElementsMatch(t, []string{"999", "42"}, index.records[1].StarredBy)
}

func TestSync_UnstarRemovesAssociationButKeepsRecord(t *testing.T) {
	fetcher := &fakeFetcher{repos: testRepos(3)}
	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	runSync(t, fetcher, embedder, index, "42")

	// The user unstars repo 3.
	fetcher.repos = testRepos(2)
	runSync(t, fetcher, embedder, index, "42")

	require.Contains(t, index.records, int64(3), "record must survive detachment")
	assert.Empty(t, index.records[3].StarredBy)
	assert.ElementsMatch(t, []string{"42"}, index.records[1].StarredBy)
}

func TestSync_DetachKeepsOtherUsers(t *testing.T) {
	fetcher := &fakeFetcher{repos: testRepos(1)}
	index := newFakeIndex()
	runSync(t, fetcher, &fakeEmbedder{}, index, "42")
	runSync(t, fetcher, &fakeEmbedder{}, index, "999")

	// User 42 unstars everything; a probe embedding drives the scan.
	fetcher.repos = nil
	embedder := &fakeEmbedder{}
	events := runSync(t, fetcher, embedder, index, "42")

	assert.Equal(t, models.NewCompleteEvent(0, 0), events[len(events)-1])
	assert.Equal(t, 1, embedder.probeCalls)
	assert.Zero(t, embedder.batchCalls)
	assert.Equal(t, []string{"999"}, index.records[1].StarredBy)
}

func TestSync_FetchFailureEmitsSingleErrorEvent(t *testing.T) {
	fetcher := &fakeFetcher{err: github.ErrTokenExpired}
	events := runSync(t, fetcher, &fakeEmbedder{}, newFakeIndex(), "42")

	require.Len(t, events, 2)
	assert.Equal(t, models.NewStartEvent(), events[0])
	assert.Equal(t, models.NewErrorEvent(github.ErrTokenExpired.Error()), events[1])
}

func TestSync_EmbeddingFailureAbortsRun(t *testing.T) {
	fetcher := &fakeFetcher{repos: testRepos(2)}
	embedder := &fakeEmbedder{batchErr: fmt.Errorf("rate limited")}
	index := newFakeIndex()

	events := runSync(t, fetcher, embedder, index, "42")

	terminal := events[len(events)-1]
	errEvent, ok := terminal.(models.ErrorEvent)
	require.True(t, ok, "terminal event must be an error")
	assert.Contains(t, errEvent.Message, "rate limited")
	assert.Zero(t, index.upserts, "no partial batch commit")
}

func TestSync_LargeStarSetBatchesEmbeddings(t *testing.T) {
	fetcher := &fakeFetcher{repos: testRepos(120)}
	embedder := &fakeEmbedder{}
	index := newFakeIndex()

	events := runSync(t, fetcher, embedder, index, "42")

	assert.Equal(t, 3, embedder.batchCalls) // 50 + 50 + 20

	var embedEvents []models.EmbedEvent
	var upsertEvents []models.UpsertEvent
	for _, ev := range events {
		switch e := ev.(type) {
		case models.EmbedEvent:
			embedEvents = append(embedEvents, e)
		case models.UpsertEvent:
			upsertEvents = append(upsertEvents, e)
		}
	}
	require.Len(t, embedEvents, 3)
	assert.Equal(t, models.NewEmbedEvent(50, 120), embedEvents[0])
	assert.Equal(t, models.NewEmbedEvent(120, 120), embedEvents[2])
	require.Len(t, upsertEvents, 2) // 100 + 20
	assert.Equal(t, models.NewUpsertEvent(120, 120), upsertEvents[1])
	assert.Equal(t, models.NewCompleteEvent(120, 120), events[len(events)-1])
}
