// Package ai builds embedding service adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/litsearch/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/litsearch/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by settings,
// wrapped in a rate limiter when settings.RateLimit is positive.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidInput, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrInvalidInput, settings.Provider)
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.EmbeddingProviderHashing:
		svc = hashing.NewEmbeddingService(hashing.Config{Dimensions: settings.Dimensions})
	case domain.EmbeddingProviderOllama:
		svc = createOllamaEmbedding(settings)
	case domain.EmbeddingProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)
	}
	if err != nil {
		return nil, err
	}
	return ratelimit.Wrap(svc, settings.RateLimit), nil
}

// CreateAndValidateEmbeddingService creates an embedding service and checks it is reachable.
func CreateAndValidateEmbeddingService(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'litsearch settings set' to fix", domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'litsearch settings set' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// PingEmbedding builds a throwaway service from settings and pings it.
// It satisfies services.EmbeddingPinger.
func PingEmbedding(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

func createOllamaEmbedding(settings domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

func createOpenAIEmbedding(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}
