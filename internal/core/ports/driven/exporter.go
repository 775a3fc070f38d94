package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// Exporter serialises query results to a file or stream.
type Exporter interface {
	// Export writes results projected by mode to path and returns the written path.
	// It returns domain.ErrNoResults when results is empty.
	Export(ctx context.Context, results []domain.QueryResult, mode domain.DisplayMode, path string) (string, error)

	// Write encodes results projected by mode to w.
	Write(w io.Writer, results []domain.QueryResult, mode domain.DisplayMode) error
}
