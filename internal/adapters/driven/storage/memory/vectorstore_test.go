package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

func TestVectorStore_UpsertReplaces(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	require.NoError(t, store.UpsertVector(ctx, "k1", domain.FieldTitle, []float32{1, 0}))
	require.NoError(t, store.UpsertVector(ctx, "k1", domain.FieldTitle, []float32{0, 1}))

	assert.Equal(t, 1, store.Count())
	hits, err := store.SearchTopK(ctx, []float32{0, 1}, domain.FieldTitle, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestVectorStore_DimensionMismatch(t *testing.T) {
	store := NewVectorStore(0)
	ctx := context.Background()

	require.NoError(t, store.UpsertVector(ctx, "k1", domain.FieldTitle, []float32{1, 0, 0}))
	err := store.UpsertVector(ctx, "k2", domain.FieldTitle, []float32{1, 0})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = store.SearchTopK(ctx, []float32{1}, domain.FieldTitle, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorStore_UnknownField(t *testing.T) {
	store := NewVectorStore(2)
	err := store.UpsertVector(context.Background(), "k1", domain.Field("body"), []float32{1, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_SearchIsPerField(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	require.NoError(t, store.UpsertVector(ctx, "k1", domain.FieldTitle, []float32{1, 0}))
	require.NoError(t, store.UpsertVector(ctx, "k2", domain.FieldAbstract, []float32{1, 0}))
	require.NoError(t, store.UpsertVector(ctx, "k3", domain.FieldTitle, []float32{0.6, 0.8}))

	hits, err := store.SearchTopK(ctx, []float32{1, 0}, domain.FieldTitle, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "k1", hits[0].Key)
	assert.Equal(t, "k3", hits[1].Key)
	for _, h := range hits {
		assert.Equal(t, domain.FieldTitle, h.Field)
	}

	top1, err := store.SearchTopK(ctx, []float32{1, 0}, domain.FieldTitle, 1)
	require.NoError(t, err)
	assert.Len(t, top1, 1)
}

func TestVectorStore_FieldsForAndDelete(t *testing.T) {
	store := NewVectorStore(2)
	ctx := context.Background()

	require.NoError(t, store.UpsertVector(ctx, "k1", domain.FieldSummary, []float32{1, 0}))
	require.NoError(t, store.UpsertVector(ctx, "k1", domain.FieldTitle, []float32{1, 0}))

	fields, err := store.FieldsFor(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{domain.FieldTitle, domain.FieldSummary}, fields)

	require.NoError(t, store.DeleteVector(ctx, "k1", domain.FieldTitle))
	require.NoError(t, store.DeleteVector(ctx, "missing", domain.FieldTitle))

	fields, err = store.FieldsFor(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{domain.FieldSummary}, fields)
}
