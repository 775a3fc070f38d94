package driving

import (
	"context"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// QueryService answers free-text queries with ranked, filtered articles.
type QueryService interface {
	// Query returns results ranked by score, then publication date, then key.
	Query(ctx context.Context, text string, filters domain.QueryFilters) ([]domain.QueryResult, error)

	// QueryWithStats is Query plus a breakdown of how candidates were reduced.
	QueryWithStats(ctx context.Context, text string, filters domain.QueryFilters) ([]domain.QueryResult, domain.QueryStats, error)
}
