package service

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/starseekers/starseekers/internal/github"
	"github.com/starseekers/starseekers/internal/models"
)

// ---- Collaborator contracts ------------------------------------------------

// StarFetcher pages through a user's starred repositories.
type StarFetcher interface {
	FetchStarred(ctx context.Context, accessToken string, perPage, maxPages int, onPage github.ProgressFunc) ([]models.StarredRepo, error)
}

// VectorIndex is the shared multi-tenant vector index. All implementations
// must honor the starredBy membership filter on Query.
type VectorIndex interface {
	FetchRecords(ctx context.Context, ids []int64) (map[int64]models.RepoRecord, error)
	UpsertRecords(ctx context.Context, records []models.RepoRecord) error
	SetStarredBy(ctx context.Context, id int64, starredBy []string) error
	Query(ctx context.Context, vector []float32, userID string, limit int) ([]models.RepoRecord, error)
}

// ---- Service interface + implementation ------------------------------------

// SyncService reconciles a user's starred repositories against the vector
// index: fetch, fingerprint, embed what changed, upsert, patch associations,
// and retract stale ones.
type SyncService interface {
	// Run starts one sync and returns its ordered event stream. The channel
	// carries exactly one terminal event (complete or error) and is closed by
	// the producer. The run is not torn down when the consumer stops reading.
	Run(ctx context.Context, userID, accessToken string) <-chan models.SyncEvent
}

const (
	fetchPageSize = 100

	// embedBatchSize bounds one embedding request's payload and rate-limit
	// exposure; upsertBatchSize stays below the index's payload ceiling.
	embedBatchSize  = 50
	upsertBatchSize = 100

	// detachQueryLimit should realistically capture a user's whole starred
	// set in one filtered query; the detachment loop handles truncation.
	detachQueryLimit = 1000

	// probeText is embedded only when a detachment pass runs in a sync that
	// embedded nothing, to satisfy the query API's need for a vector.
	probeText = "starred repository metadata"
)

type syncService struct {
	gh       StarFetcher
	embedder Embedder
	index    VectorIndex
}

// NewSyncService wires the fetcher, embedder, and index.
func NewSyncService(gh StarFetcher, embedder Embedder, index VectorIndex) SyncService {
	return &syncService{gh: gh, embedder: embedder, index: index}
}

func (s *syncService) Run(ctx context.Context, userID, accessToken string) <-chan models.SyncEvent {
	events := make(chan models.SyncEvent, 16)

	go func() {
		defer close(events)
		events <- models.NewStartEvent()

		repos, err := s.gh.FetchStarred(ctx, accessToken, fetchPageSize, 0, func(p github.PageProgress) {
			events <- models.NewFetchEvent(p.Page, p.Fetched, p.TotalFetched)
		})
		if err != nil {
			log.Printf("sync for user %s: fetch failed: %v", userID, err)
			events <- models.NewErrorEvent(err.Error())
			return
		}

		synced, err := s.reconcile(ctx, userID, repos, events)
		if err != nil {
			log.Printf("sync for user %s: %v", userID, err)
			events <- models.NewErrorEvent(err.Error())
			return
		}

		log.Printf("sync for user %s: %d/%d repositories updated", userID, synced, len(repos))
		events <- models.NewCompleteEvent(synced, len(repos))
	}()

	return events
}

// candidate is one starred repository with its derived embedding inputs.
type candidate struct {
	repo models.StarredRepo
	text string
	hash string
}

// reconcile classifies the starred set against existing records, embeds and
// upserts what changed, patches new associations, and detaches unstarred
// repositories. It returns the number of records upserted.
func (s *syncService) reconcile(ctx context.Context, userID string, repos []models.StarredRepo, events chan<- models.SyncEvent) (int, error) {
	ids := make([]int64, len(repos))
	for i, repo := range repos {
		ids[i] = repo.ID
	}

	existing, err := s.index.FetchRecords(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("lookup of existing records failed: %w", err)
	}

	// Classification happens in full before the first embedding call so no
	// embedding spend is wasted on unchanged repositories.
	var toEmbed []candidate
	var associate []int64
	for _, repo := range repos {
		text := repo.EmbeddingText()
		hash := models.HashText(text)

		rec, known := existing[repo.ID]
		if known && rec.Hash == hash {
			if !rec.Starred(userID) {
				associate = append(associate, repo.ID)
			}
			continue
		}
		toEmbed = append(toEmbed, candidate{repo: repo, text: text, hash: hash})
	}

	vectors, err := s.embedAll(ctx, toEmbed, events)
	if err != nil {
		return 0, err
	}

	if err := s.upsertAll(ctx, userID, toEmbed, vectors, existing, events); err != nil {
		return 0, err
	}

	if err := s.associate(ctx, userID, associate, existing); err != nil {
		return 0, err
	}

	if err := s.detach(ctx, userID, ids, vectors); err != nil {
		return 0, err
	}

	return len(toEmbed), nil
}

// embedAll obtains vectors for all changed-or-new repositories in bounded
// batches, preserving input order, and reports progress after each batch.
func (s *syncService) embedAll(ctx context.Context, toEmbed []candidate, events chan<- models.SyncEvent) ([][]float32, error) {
	vectors := make([][]float32, 0, len(toEmbed))
	for start := 0; start < len(toEmbed); start += embedBatchSize {
		end := min(start+embedBatchSize, len(toEmbed))
		texts := make([]string, 0, end-start)
		for _, c := range toEmbed[start:end] {
			texts = append(texts, c.text)
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(batch), len(texts))
		}

		vectors = append(vectors, batch...)
		events <- models.NewEmbedEvent(len(vectors), len(toEmbed))
	}
	return vectors, nil
}

// upsertAll writes full records for freshly embedded repositories. The
// starredBy set of a changed record keeps every previously associated user.
func (s *syncService) upsertAll(ctx context.Context, userID string, toEmbed []candidate, vectors [][]float32, existing map[int64]models.RepoRecord, events chan<- models.SyncEvent) error {
	records := make([]models.RepoRecord, len(toEmbed))
	for i, c := range toEmbed {
		records[i] = models.RepoRecord{
			ID:          c.repo.ID,
			Vector:      vectors[i],
			FullName:    c.repo.FullName,
			Description: c.repo.Description,
			HTMLURL:     c.repo.HTMLURL,
			Language:    c.repo.Language,
			Topics:      c.repo.Topics,
			Hash:        c.hash,
			StarredBy:   withUser(existing[c.repo.ID].StarredBy, userID),
		}
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		if err := s.index.UpsertRecords(ctx, records[start:end]); err != nil {
			return fmt.Errorf("index upsert failed: %w", err)
		}
		events <- models.NewUpsertEvent(end, len(records))
	}
	return nil
}

// associate patches the user into starredBy on records whose content is
// unchanged but were indexed by other users. Patches target disjoint IDs and
// run concurrently.
func (s *syncService) associate(ctx context.Context, userID string, ids []int64, existing map[int64]models.RepoRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		starredBy := withUser(existing[id].StarredBy, userID)
		g.Go(func() error {
			return s.index.SetStarredBy(gctx, id, starredBy)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("association patch failed: %w", err)
	}
	return nil
}

// detach removes the user from records no longer in the current star set.
// The similarity API needs some query vector, so a probe vector is used: any
// vector embedded this run, or a throwaway embedding otherwise. The filtered
// query repeats until it stops returning stale records, which covers
// result-count truncation.
func (s *syncService) detach(ctx context.Context, userID string, currentIDs []int64, vectors [][]float32) error {
	var probe []float32
	if len(vectors) > 0 {
		probe = vectors[0]
	} else {
		var err error
		if probe, err = s.embedder.Embed(ctx, probeText); err != nil {
			return fmt.Errorf("probe embedding failed: %w", err)
		}
	}

	current := make(map[int64]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		current[id] = struct{}{}
	}

	for {
		hits, err := s.index.Query(ctx, probe, userID, detachQueryLimit)
		if err != nil {
			return fmt.Errorf("detachment query failed: %w", err)
		}

		var stale []models.RepoRecord
		for _, hit := range hits {
			if _, ok := current[hit.ID]; !ok {
				stale = append(stale, hit)
			}
		}
		if len(stale) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, rec := range stale {
			starredBy := withoutUser(rec.StarredBy, userID)
			id := rec.ID
			g.Go(func() error {
				return s.index.SetStarredBy(gctx, id, starredBy)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("detachment patch failed: %w", err)
		}
	}
}

func withUser(starredBy []string, userID string) []string {
	for _, u := range starredBy {
		if u == userID {
			return starredBy
		}
	}
	return append(append([]string{}, starredBy...), userID)
}

func withoutUser(starredBy []string, userID string) []string {
	out := make([]string, 0, len(starredBy))
	for _, u := range starredBy {
		if u != userID {
			out = append(out, u)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
