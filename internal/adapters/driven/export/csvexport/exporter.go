// Package csvexport writes query results as CSV files and streams.
package csvexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// DefaultFilename is used when Export receives an empty path.
const DefaultFilename = "results.csv"

// Ensure Exporter implements the interface.
var _ driven.Exporter = (*Exporter)(nil)

// Exporter writes results to CSV files on the local filesystem.
type Exporter struct{}

// NewExporter creates a CSV exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes results to path and returns the absolute path written.
// The file is written to a temporary sibling and renamed into place, so a
// failed export never leaves a truncated file behind.
func (e *Exporter) Export(
	ctx context.Context, results []domain.QueryResult, mode domain.DisplayMode, path string,
) (string, error) {
	if len(results) == 0 {
		return "", domain.ErrNoResults
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if path == "" {
		path = DefaultFilename
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving export path: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".litsearch-export-*.csv")
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, results, mode); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", fmt.Errorf("moving export file into place: %w", err)
	}
	return abs, nil
}

// Write encodes results as CSV with a header row for mode.
func (e *Exporter) Write(w io.Writer, results []domain.QueryResult, mode domain.DisplayMode) error {
	return Write(w, results, mode)
}

// Write encodes results as CSV with a header row for mode.
func Write(w io.Writer, results []domain.QueryResult, mode domain.DisplayMode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(mode.Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(r.Row(mode)); err != nil {
			return fmt.Errorf("writing row %s: %w", r.Article.Key, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
