// Package ratelimit wraps an embedding service with a token-bucket request limit.
package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService delays calls to the wrapped service so that no more than
// the configured number of requests per second reach it.
// A batch counts as one request.
type EmbeddingService struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap returns next limited to perSecond requests. A non-positive rate returns next unchanged.
func Wrap(next driven.EmbeddingService, perSecond float64) driven.EmbeddingService {
	if perSecond <= 0 {
		return next
	}
	burst := int(math.Ceil(perSecond))
	return &EmbeddingService{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Embed waits for a token, then embeds text with the wrapped service.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Embed(ctx, text)
}

// EmbedBatch waits for a single token for the whole batch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.next.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector length.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping bypasses the limiter.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.next.Close() }
