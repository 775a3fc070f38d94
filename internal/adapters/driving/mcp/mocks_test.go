package mcp

import (
	"context"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	results  []domain.QueryResult
	err      error
	lastText string
	last     domain.QueryFilters
}

func (m *mockQueryService) Query(
	_ context.Context, text string, filters domain.QueryFilters,
) ([]domain.QueryResult, error) {
	m.lastText = text
	m.last = filters
	return m.results, m.err
}

func (m *mockQueryService) QueryWithStats(
	ctx context.Context, text string, filters domain.QueryFilters,
) ([]domain.QueryResult, domain.QueryStats, error) {
	results, err := m.Query(ctx, text, filters)
	return results, domain.QueryStats{Returned: len(results)}, err
}

// mockIngestService is a mock implementation of driving.IngestService.
// Only Get is meaningful here.
type mockIngestService struct {
	articles map[string]*domain.Article
	err      error
}

func (m *mockIngestService) Ingest(context.Context, *domain.Article) domain.IngestOutcome {
	return domain.IngestOutcome{}
}

func (m *mockIngestService) IngestRaw(context.Context, domain.RawArticle) domain.IngestOutcome {
	return domain.IngestOutcome{}
}

func (m *mockIngestService) IngestBatch(context.Context, []domain.RawArticle, int) domain.IngestReport {
	return domain.IngestReport{}
}

func (m *mockIngestService) Resync(context.Context) (domain.IngestReport, error) {
	return domain.IngestReport{}, nil
}

func (m *mockIngestService) Get(_ context.Context, key string) (*domain.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.articles[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}
