package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// ExportService writes query results to files or streams.
type ExportService interface {
	// Export writes results to path using the display projection and returns the written path.
	Export(ctx context.Context, results []domain.QueryResult, mode domain.DisplayMode, path string) (string, error)

	// WriteResults encodes results to w using the display projection.
	WriteResults(ctx context.Context, w io.Writer, results []domain.QueryResult, mode domain.DisplayMode) error

	// QueryAndExport runs a query and exports its results in one step.
	QueryAndExport(ctx context.Context, text string, filters domain.QueryFilters, path string) (string, int, error)
}
