package driving

import (
	"context"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// IngestService keeps the relational and vector stores in sync for each article.
type IngestService interface {
	// Ingest writes an already normalised article and its field vectors.
	Ingest(ctx context.Context, article *domain.Article) domain.IngestOutcome

	// IngestRaw normalises a scraped article, then ingests it.
	IngestRaw(ctx context.Context, raw domain.RawArticle) domain.IngestOutcome

	// IngestBatch ingests raw articles with at most workers running at once.
	// Articles sharing a key are processed in input order by the same worker.
	IngestBatch(ctx context.Context, raws []domain.RawArticle, workers int) domain.IngestReport

	// Resync re-ingests every stored article whose vector set is incomplete.
	Resync(ctx context.Context) (domain.IngestReport, error)

	// Get returns a stored article by key.
	Get(ctx context.Context, key string) (*domain.Article, error)
}
