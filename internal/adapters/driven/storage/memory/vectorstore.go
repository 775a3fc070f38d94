package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory brute-force implementation of driven.VectorStore.
// The first vector written fixes the dimension.
type VectorStore struct {
	mu      sync.RWMutex
	dim     int
	vectors map[domain.Field]map[string][]float32
}

// NewVectorStore creates a new in-memory vector store.
// A dim of zero adopts the length of the first vector written.
func NewVectorStore(dim int) *VectorStore {
	vectors := make(map[domain.Field]map[string][]float32, len(domain.AllFields))
	for _, f := range domain.AllFields {
		vectors[f] = make(map[string][]float32)
	}
	return &VectorStore{dim: dim, vectors: vectors}
}

// UpsertVector replaces the vector for (key, field).
func (s *VectorStore) UpsertVector(_ context.Context, key string, field domain.Field, vector []float32) error {
	if !field.IsValid() {
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		s.dim = len(vector)
	}
	if len(vector) != s.dim {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), s.dim)
	}
	s.vectors[field][key] = append([]float32(nil), vector...)
	return nil
}

// DeleteVector removes the vector for (key, field).
func (s *VectorStore) DeleteVector(_ context.Context, key string, field domain.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byKey, ok := s.vectors[field]; ok {
		delete(byKey, key)
	}
	return nil
}

// SearchTopK returns the k most similar vectors of field.
func (s *VectorStore) SearchTopK(
	_ context.Context, query []float32, field domain.Field, k int,
) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dim != 0 && len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d, store has %d", domain.ErrDimensionMismatch, len(query), s.dim)
	}
	byKey := s.vectors[field]
	hits := make([]driven.VectorHit, 0, len(byKey))
	for key, vec := range byKey {
		hits = append(hits, vecmath.Hit(key, field, query, vec))
	}
	return vecmath.TopK(hits, k), nil
}

// FieldsFor returns the fields holding a vector for key, in canonical order.
func (s *VectorStore) FieldsFor(_ context.Context, key string) ([]domain.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var fields []domain.Field
	for _, f := range domain.AllFields {
		if _, ok := s.vectors[f][key]; ok {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// Count returns the number of stored vectors.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, byKey := range s.vectors {
		n += len(byKey)
	}
	return n
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}
