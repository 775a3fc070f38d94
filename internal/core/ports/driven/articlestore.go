package driven

import (
	"context"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// ArticleStore persists articles keyed by their identity key.
// It is the source of truth: vectors are derived from its rows.
type ArticleStore interface {
	// UpsertArticle inserts or replaces the row for article.Key.
	// CreatedAt is preserved across updates.
	UpsertArticle(ctx context.Context, article *domain.Article) error

	// GetArticleByKey returns domain.ErrNotFound when no row exists.
	GetArticleByKey(ctx context.Context, key string) (*domain.Article, error)

	// GetArticlesByKeys returns the rows that exist, keyed by article key.
	// Missing keys are simply absent from the map.
	GetArticlesByKeys(ctx context.Context, keys []string) (map[string]*domain.Article, error)

	// GetArticlesByFilter returns rows whose publication date lies in the filter range,
	// ordered by key. A non-empty filter.Keys restricts the rows to those keys.
	GetArticlesByFilter(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)

	// ListKeys returns every article key in ascending order.
	ListKeys(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
