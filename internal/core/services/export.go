package services

import (
	"context"
	"fmt"
	"io"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
	"github.com/custodia-labs/litsearch/internal/core/ports/driving"
)

// Ensure ExportService implements the interface.
var _ driving.ExportService = (*ExportService)(nil)

// ExportService writes query results through an Exporter.
type ExportService struct {
	exporter driven.Exporter
	query    driving.QueryService
}

// NewExportService creates a new export service.
func NewExportService(exporter driven.Exporter, query driving.QueryService) *ExportService {
	return &ExportService{exporter: exporter, query: query}
}

// Export writes results to path using the display projection.
func (s *ExportService) Export(
	ctx context.Context, results []domain.QueryResult, mode domain.DisplayMode, path string,
) (string, error) {
	if s.exporter == nil {
		return "", fmt.Errorf("export: no exporter configured")
	}
	if len(results) == 0 {
		return "", domain.ErrNoResults
	}
	if mode == "" {
		mode = domain.DisplayAll
	}
	return s.exporter.Export(ctx, results, mode, path)
}

// WriteResults encodes results to w using the display projection.
func (s *ExportService) WriteResults(
	ctx context.Context, w io.Writer, results []domain.QueryResult, mode domain.DisplayMode,
) error {
	if s.exporter == nil {
		return fmt.Errorf("export: no exporter configured")
	}
	if len(results) == 0 {
		return domain.ErrNoResults
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if mode == "" {
		mode = domain.DisplayAll
	}
	return s.exporter.Write(w, results, mode)
}

// QueryAndExport runs a query and exports its results. It returns the written
// path and the number of exported results.
func (s *ExportService) QueryAndExport(
	ctx context.Context, text string, filters domain.QueryFilters, path string,
) (string, int, error) {
	if s.query == nil {
		return "", 0, fmt.Errorf("export: no query service configured")
	}
	results, err := s.query.Query(ctx, text, filters)
	if err != nil {
		return "", 0, err
	}
	written, err := s.Export(ctx, results, filters.Display, path)
	if err != nil {
		return "", 0, err
	}
	return written, len(results), nil
}
