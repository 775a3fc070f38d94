package driven

import (
	"context"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// VectorStore persists one vector per (article key, field) and answers
// nearest-neighbour queries restricted to a field.
type VectorStore interface {
	// UpsertVector replaces any prior vector for (key, field).
	UpsertVector(ctx context.Context, key string, field domain.Field, vector []float32) error

	// DeleteVector removes the vector for (key, field). Missing records are not an error.
	DeleteVector(ctx context.Context, key string, field domain.Field) error

	// SearchTopK returns up to k hits for field, most similar first.
	SearchTopK(ctx context.Context, query []float32, field domain.Field, k int) ([]VectorHit, error)

	// FieldsFor returns the fields that currently hold a vector for key.
	FieldsFor(ctx context.Context, key string) ([]domain.Field, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Key is the matched article key.
	Key string

	// Field is the field whose vector matched.
	Field domain.Field

	// Score is the cosine similarity (-1 to 1, higher is closer).
	Score float64
}
