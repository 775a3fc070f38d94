package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// newFixedEngine returns an engine over canned hits and the given articles.
func newFixedEngine(t *testing.T, hits map[domain.Field][]driven.VectorHit, articles ...domain.Article) (*QueryEngine, *fixedVectorStore) {
	t.Helper()
	store := memory.NewArticleStore()
	for i := range articles {
		require.NoError(t, store.UpsertArticle(context.Background(), &articles[i]))
	}
	vectors := &fixedVectorStore{hits: hits}
	return NewQueryEngine(store, vectors, &conceptEmbedder{}, 0), vectors
}

func TestQueryEngine_SurgicalScenario(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	surgical := h.sync.IngestRaw(ctx, surgicalRaw())
	require.Equal(t, domain.StatusSynced, surgical.Status)
	require.Equal(t, domain.StatusSynced, h.sync.IngestRaw(ctx, cardioRaw()).Status)

	results, err := h.query.Query(ctx, "surgery", domain.QueryFilters{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, surgical.Key, results[0].Article.Key)
	assert.NotEmpty(t, results[0].MatchedFields)
	assert.Equal(t, []domain.Field{domain.FieldTitle, domain.FieldAbstract}, results[0].MatchedFields)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQueryEngine_EmptyQuery(t *testing.T) {
	h := newHarness()

	for _, text := range []string{"", "   "} {
		_, err := h.query.Query(context.Background(), text, domain.QueryFilters{})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	}
	assert.Equal(t, 0, h.embedder.callCount())
}

func TestQueryEngine_InvertedRange(t *testing.T) {
	h := newHarness()

	_, err := h.query.Query(context.Background(), "surgery", domain.QueryFilters{
		DateFrom: date("2023-06-01"),
		DateTo:   date("2023-01-01"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidFilterRange)
	assert.True(t, domain.IsInputError(err))
	assert.Equal(t, 0, h.embedder.callCount())
}

func TestQueryEngine_StopWordsOnly(t *testing.T) {
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 64})
	articles := memory.NewArticleStore()
	vectors := memory.NewVectorStore(64)
	coordinator := NewSyncCoordinator(articles, vectors, embedder)
	require.Equal(t, domain.StatusSynced, coordinator.IngestRaw(context.Background(), surgicalRaw()).Status)
	engine := NewQueryEngine(articles, vectors, embedder, 0)

	results, err := engine.Query(context.Background(), "of the and", domain.QueryFilters{})

	require.ErrorIs(t, err, domain.ErrInvalidQuery)
	assert.True(t, domain.IsInputError(err))
	assert.Nil(t, results)
}

func TestQueryEngine_UnknownDisplayMode(t *testing.T) {
	h := newHarness()

	_, err := h.query.Query(context.Background(), "surgery", domain.QueryFilters{Display: "everything"})

	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestQueryEngine_MaxAggregation(t *testing.T) {
	hits := map[domain.Field][]driven.VectorHit{
		domain.FieldTitle:    {{Key: "b", Field: domain.FieldTitle, Score: 0.5}},
		domain.FieldAbstract: {{Key: "a", Field: domain.FieldAbstract, Score: 0.9}},
		domain.FieldSummary:  {{Key: "b", Field: domain.FieldSummary, Score: 0.4}},
	}
	engine, _ := newFixedEngine(t, hits, domain.Article{Key: "a"}, domain.Article{Key: "b"})

	results, err := engine.Query(context.Background(), "anything", domain.QueryFilters{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Article.Key)
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
	assert.Equal(t, []domain.Field{domain.FieldAbstract}, results[0].MatchedFields)
	assert.Equal(t, "b", results[1].Article.Key)
	assert.InDelta(t, 0.5, results[1].Score, 1e-9)
	assert.Equal(t, []domain.Field{domain.FieldTitle}, results[1].MatchedFields)
}

func TestQueryEngine_MatchedFieldsOnTie(t *testing.T) {
	hits := map[domain.Field][]driven.VectorHit{
		domain.FieldSummary: {{Key: "a", Field: domain.FieldSummary, Score: 0.7}},
		domain.FieldTitle:   {{Key: "a", Field: domain.FieldTitle, Score: 0.7}},
	}
	engine, _ := newFixedEngine(t, hits, domain.Article{Key: "a"})

	results, err := engine.Query(context.Background(), "anything", domain.QueryFilters{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []domain.Field{domain.FieldTitle, domain.FieldSummary}, results[0].MatchedFields)
}

func TestQueryEngine_TieBreak(t *testing.T) {
	hits := map[domain.Field][]driven.VectorHit{
		domain.FieldTitle: {
			{Key: "undated", Field: domain.FieldTitle, Score: 0.8},
			{Key: "old", Field: domain.FieldTitle, Score: 0.8},
			{Key: "new-b", Field: domain.FieldTitle, Score: 0.8},
			{Key: "new-a", Field: domain.FieldTitle, Score: 0.8},
			{Key: "best", Field: domain.FieldTitle, Score: 0.95},
		},
	}
	engine, _ := newFixedEngine(t, hits,
		domain.Article{Key: "undated"},
		domain.Article{Key: "old", PublicationDate: date("2020-01-01")},
		domain.Article{Key: "new-b", PublicationDate: date("2024-01-01")},
		domain.Article{Key: "new-a", PublicationDate: date("2024-01-01")},
		domain.Article{Key: "best"},
	)

	results, err := engine.Query(context.Background(), "anything", domain.QueryFilters{})
	require.NoError(t, err)

	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.Article.Key
	}
	assert.Equal(t, []string{"best", "new-a", "new-b", "old", "undated"}, keys)

	// Re-running against an unchanged store gives the same order
	again, err := engine.Query(context.Background(), "anything", domain.QueryFilters{})
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestQueryEngine_DropsStaleVectors(t *testing.T) {
	hits := map[domain.Field][]driven.VectorHit{
		domain.FieldTitle: {
			{Key: "live", Field: domain.FieldTitle, Score: 0.6},
			{Key: "ghost", Field: domain.FieldTitle, Score: 0.9},
		},
	}
	engine, _ := newFixedEngine(t, hits, domain.Article{Key: "live"})

	results, stats, err := engine.QueryWithStats(context.Background(), "anything", domain.QueryFilters{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "live", results[0].Article.Key)
	assert.Equal(t, 2, stats.Candidates)
	assert.Equal(t, 1, stats.StaleVectors)
	assert.Equal(t, 1, stats.Returned)
}

func TestQueryEngine_DateFilter(t *testing.T) {
	hits := map[domain.Field][]driven.VectorHit{
		domain.FieldTitle: {
			{Key: "jan", Field: domain.FieldTitle, Score: 0.9},
			{Key: "mar", Field: domain.FieldTitle, Score: 0.8},
			{Key: "jun", Field: domain.FieldTitle, Score: 0.7},
			{Key: "undated", Field: domain.FieldTitle, Score: 0.99},
		},
	}
	engine, _ := newFixedEngine(t, hits,
		domain.Article{Key: "jan", PublicationDate: date("2023-01-15")},
		domain.Article{Key: "mar", PublicationDate: date("2023-03-01")},
		domain.Article{Key: "jun", PublicationDate: date("2023-06-01")},
		domain.Article{Key: "undated"},
	)
	filters := domain.QueryFilters{DateFrom: date("2023-03-01"), DateTo: date("2023-06-01")}

	results, stats, err := engine.QueryWithStats(context.Background(), "anything", filters)

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NotNil(t, r.Article.PublicationDate)
		assert.True(t, filters.Contains(r.Article.PublicationDate))
	}
	assert.Equal(t, "mar", results[0].Article.Key)
	assert.Equal(t, "jun", results[1].Article.Key)
	assert.Equal(t, 2, stats.Filtered)
}

func TestQueryEngine_DateRangeFiltersInStore(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	surgical := h.sync.IngestRaw(ctx, surgicalRaw())
	require.Equal(t, domain.StatusSynced, surgical.Status)
	require.Equal(t, domain.StatusSynced, h.sync.IngestRaw(ctx, cardioRaw()).Status)
	require.NoError(t, h.vectors.UpsertVector(ctx, "ghost", domain.FieldTitle, []float32{1, 0, 0, 0.1}))

	filters := domain.QueryFilters{DateFrom: date("2023-04-01"), DateTo: date("2023-06-30")}
	results, stats, err := h.query.QueryWithStats(ctx, "surgery", filters)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, surgical.Key, results[0].Article.Key)
	assert.Equal(t, 1, h.articles.filterCalls)
	assert.Equal(t, 3, stats.Candidates)
	assert.Equal(t, 1, stats.StaleVectors)
	assert.Equal(t, 1, stats.Filtered)

	_, err = h.query.Query(ctx, "surgery", domain.QueryFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, h.articles.filterCalls, "no range, no filtered select")
}

func TestQueryEngine_Limit(t *testing.T) {
	hits := map[domain.Field][]driven.VectorHit{
		domain.FieldTitle: {
			{Key: "a", Field: domain.FieldTitle, Score: 0.3},
			{Key: "b", Field: domain.FieldTitle, Score: 0.2},
			{Key: "c", Field: domain.FieldTitle, Score: 0.9},
		},
	}
	engine, _ := newFixedEngine(t, hits, domain.Article{Key: "a"}, domain.Article{Key: "b"}, domain.Article{Key: "c"})

	results, err := engine.Query(context.Background(), "anything", domain.QueryFilters{Limit: 2})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c", results[0].Article.Key)
	assert.Equal(t, "a", results[1].Article.Key)
}

func TestQueryEngine_EmptyStore(t *testing.T) {
	h := newHarness()

	results, err := h.query.Query(context.Background(), "surgery", domain.QueryFilters{})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestQueryEngine_PassesTopKToEveryField(t *testing.T) {
	vectors := &fixedVectorStore{}
	engine := NewQueryEngine(memory.NewArticleStore(), vectors, &conceptEmbedder{}, 7)

	_, err := engine.Query(context.Background(), "anything", domain.QueryFilters{})

	require.NoError(t, err)
	assert.Equal(t, []int{7, 7, 7}, vectors.ks)
	assert.Equal(t, 7, engine.TopK())
	assert.Equal(t, domain.DefaultTopK, NewQueryEngine(nil, nil, nil, 0).TopK())
}

func TestQueryEngine_CollaboratorFailures(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		h := newHarness()
		h.embedder.failOn = map[string]bool{"surgery": true}
		_, err := h.query.Query(context.Background(), "surgery", domain.QueryFilters{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.False(t, domain.IsInputError(err))
	})

	t.Run("vector search", func(t *testing.T) {
		h := newHarness()
		h.vectors.searchErr = errStub
		_, err := h.query.Query(context.Background(), "surgery", domain.QueryFilters{})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.ErrorIs(t, err, errStub)
	})

	t.Run("relational lookup", func(t *testing.T) {
		h := newHarness()
		require.Equal(t, domain.StatusSynced, h.sync.IngestRaw(context.Background(), surgicalRaw()).Status)
		h.articles.getErr = errStub
		_, err := h.query.Query(context.Background(), "surgery", domain.QueryFilters{})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("relational filter", func(t *testing.T) {
		h := newHarness()
		require.Equal(t, domain.StatusSynced, h.sync.IngestRaw(context.Background(), surgicalRaw()).Status)
		h.articles.getErr = errStub
		_, err := h.query.Query(context.Background(), "surgery", domain.QueryFilters{DateFrom: date("2023-01-01")})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Equal(t, 1, h.articles.filterCalls)
	})

	t.Run("no embedder", func(t *testing.T) {
		engine := NewQueryEngine(memory.NewArticleStore(), memory.NewVectorStore(4), nil, 0)
		_, err := engine.Query(context.Background(), "surgery", domain.QueryFilters{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestQueryEngine_EveryStoredArticleIsReachable(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	for _, raw := range []domain.RawArticle{surgicalRaw(), cardioRaw()} {
		require.Equal(t, domain.StatusSynced, h.sync.IngestRaw(ctx, raw).Status)
	}

	_, stats, err := h.query.QueryWithStats(ctx, "heart surgery", domain.QueryFilters{})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Candidates)
	assert.Equal(t, 0, stats.StaleVectors)
	assert.Equal(t, 2, stats.Returned)
}
