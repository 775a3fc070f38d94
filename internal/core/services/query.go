package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
	"github.com/custodia-labs/litsearch/internal/core/ports/driving"
	"github.com/custodia-labs/litsearch/internal/logger"
)

// Ensure QueryEngine implements the interface.
var _ driving.QueryService = (*QueryEngine)(nil)

// candidate holds the merged vector evidence for one article key.
type candidate struct {
	key    string
	score  float64
	fields []domain.Field
}

// QueryEngine answers free-text queries by combining per-field vector
// search with relational filtering.
type QueryEngine struct {
	articles driven.ArticleStore
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	topK     int
}

// NewQueryEngine creates a new query engine.
// topK is the per-field candidate count; values <= 0 use domain.DefaultTopK.
func NewQueryEngine(
	articles driven.ArticleStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	topK int,
) *QueryEngine {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &QueryEngine{
		articles: articles,
		vectors:  vectors,
		embedder: embedder,
		topK:     topK,
	}
}

// TopK returns the per-field candidate count.
func (e *QueryEngine) TopK() int {
	return e.topK
}

// Query returns results ranked by score, then publication date, then key.
func (e *QueryEngine) Query(
	ctx context.Context, text string, filters domain.QueryFilters,
) ([]domain.QueryResult, error) {
	results, _, err := e.QueryWithStats(ctx, text, filters)
	return results, err
}

// QueryWithStats is Query plus a breakdown of how candidates were reduced.
func (e *QueryEngine) QueryWithStats(
	ctx context.Context, text string, filters domain.QueryFilters,
) ([]domain.QueryResult, domain.QueryStats, error) {
	var stats domain.QueryStats

	logger.Section("Query Execution")
	defer logger.Timed("query")()
	logger.Debug("Query: %q", text)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, stats, fmt.Errorf("%w: empty query text", domain.ErrInvalidQuery)
	}
	if err := filters.Validate(); err != nil {
		return nil, stats, err
	}
	if e.embedder == nil {
		return nil, stats, fmt.Errorf("%w: not configured", domain.ErrEmbeddingUnavailable)
	}

	// 1. Embed once; every field search uses the same vector.
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	// A zero vector has no direction; every article would score 0.
	if isZeroVector(vec) {
		return nil, stats, fmt.Errorf("%w: no searchable terms in %q", domain.ErrInvalidQuery, text)
	}

	// 2. Per-field nearest neighbours, concurrently.
	hits, err := e.searchFields(ctx, vec)
	if err != nil {
		return nil, stats, err
	}

	// 3. Merge by key with max aggregation.
	candidates := mergeHits(hits)
	stats.Candidates = len(candidates)
	logger.Debug("Candidates: %d from %d hits (k=%d)", len(candidates), len(hits), e.topK)
	if len(candidates) == 0 {
		return []domain.QueryResult{}, stats, nil
	}

	// 4. Relational filter over the candidate keys.
	keys := make([]string, len(candidates))
	for i, cand := range candidates {
		keys[i] = cand.key
	}
	rows, outside, err := e.relationalRows(ctx, keys, filters)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: get articles: %w", domain.ErrStoreUnavailable, err)
	}

	results := make([]domain.QueryResult, 0, len(candidates))
	for _, cand := range candidates {
		if outside[cand.key] {
			stats.Filtered++
			continue
		}
		article, ok := rows[cand.key]
		if !ok || article == nil {
			stats.StaleVectors++
			logger.Warn("Stale vector: no article for key %s", cand.key)
			continue
		}
		if !filters.Contains(article.PublicationDate) {
			stats.Filtered++
			continue
		}
		results = append(results, domain.QueryResult{
			Article:       *article,
			Score:         cand.score,
			MatchedFields: cand.fields,
		})
	}

	// 5. Deterministic ranking, then limit.
	SortResults(results)
	if filters.Limit > 0 && len(results) > filters.Limit {
		results = results[:filters.Limit]
	}
	stats.Returned = len(results)

	logger.Info("Query returned %d results (%d stale, %d filtered)",
		stats.Returned, stats.StaleVectors, stats.Filtered)
	return results, stats, nil
}

// relationalRows returns the candidate rows that pass the date range, plus the
// keys whose rows exist but fall outside it. Without a range this is a single
// key lookup. With one, the store applies the range and only the keys it
// dropped are looked up again, to tell out-of-range rows from stale vectors.
func (e *QueryEngine) relationalRows(
	ctx context.Context, keys []string, filters domain.QueryFilters,
) (map[string]*domain.Article, map[string]bool, error) {
	if !filters.HasDateRange() {
		rows, err := e.articles.GetArticlesByKeys(ctx, keys)
		return rows, nil, err
	}

	matched, err := e.articles.GetArticlesByFilter(ctx, domain.ArticleFilter{
		Keys:     keys,
		DateFrom: filters.DateFrom,
		DateTo:   filters.DateTo,
	})
	if err != nil {
		return nil, nil, err
	}
	rows := make(map[string]*domain.Article, len(matched))
	for i := range matched {
		rows[matched[i].Key] = &matched[i]
	}

	var dropped []string
	for _, key := range keys {
		if _, ok := rows[key]; !ok {
			dropped = append(dropped, key)
		}
	}
	outside := make(map[string]bool, len(dropped))
	if len(dropped) == 0 {
		return rows, outside, nil
	}
	existing, err := e.articles.GetArticlesByKeys(ctx, dropped)
	if err != nil {
		return nil, nil, err
	}
	for key := range existing {
		outside[key] = true
	}
	logger.Debug("Date range kept %d of %d candidates", len(rows), len(keys))
	return rows, outside, nil
}

func (e *QueryEngine) searchFields(ctx context.Context, vec []float32) ([]driven.VectorHit, error) {
	var (
		mu  sync.Mutex
		all []driven.VectorHit
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, field := range domain.AllFields {
		g.Go(func() error {
			hits, err := e.vectors.SearchTopK(gctx, vec, field, e.topK)
			if err != nil {
				return fmt.Errorf("%w: search %s: %w", domain.ErrStoreUnavailable, field, err)
			}
			logger.Debug("Field %s: %d hits", field, len(hits))
			mu.Lock()
			all = append(all, hits...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// mergeHits groups hits by key. The score is the maximum over fields and the
// matched fields are those reaching it, in canonical field order.
// The result is ordered by key so later steps are deterministic.
func mergeHits(hits []driven.VectorHit) []candidate {
	byKey := make(map[string]*candidate)
	for _, h := range hits {
		c, ok := byKey[h.Key]
		switch {
		case !ok:
			byKey[h.Key] = &candidate{key: h.Key, score: h.Score, fields: []domain.Field{h.Field}}
		case h.Score > c.score:
			c.score = h.Score
			c.fields = []domain.Field{h.Field}
		case h.Score == c.score && !containsField(c.fields, h.Field):
			c.fields = append(c.fields, h.Field)
		}
	}

	out := make([]candidate, 0, len(byKey))
	for _, c := range byKey {
		sort.Slice(c.fields, func(i, j int) bool {
			return c.fields[i].Ordinal() < c.fields[j].Ordinal()
		})
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// SortResults orders results by score descending, then publication date
// descending with undated articles last, then key ascending.
func SortResults(results []domain.QueryResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		da, db := a.Article.PublicationDate, b.Article.PublicationDate
		switch {
		case da != nil && db == nil:
			return true
		case da == nil && db != nil:
			return false
		case da != nil && db != nil && !da.Equal(*db):
			return da.After(*db)
		}
		return a.Article.Key < b.Article.Key
	})
}

func isZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func containsField(fields []domain.Field, f domain.Field) bool {
	for _, candidate := range fields {
		if candidate == f {
			return true
		}
	}
	return false
}
