// Package app wires driven adapters into the core services from settings.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/ai"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/events/kafka"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/export/csvexport"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
	"github.com/custodia-labs/litsearch/internal/core/services"
	"github.com/custodia-labs/litsearch/internal/logger"
)

// Options selects where configuration and data live.
type Options struct {
	// ConfigDir holds config.toml (default: ~/.litsearch).
	ConfigDir string

	// DataDir holds the SQLite database (default: ~/.litsearch/data).
	DataDir string

	// Ephemeral keeps articles and vectors in memory regardless of storage.backend.
	Ephemeral bool

	// TopK overrides query.top_k when positive.
	TopK int

	// SettingsOnly skips stores, embedder and publisher.
	SettingsOnly bool
}

// Container holds the wired services and the resources they own.
type Container struct {
	Settings *services.SettingsService
	Ingest   *services.SyncCoordinator
	Query    *services.QueryEngine
	Export   *services.ExportService

	// AppSettings is the snapshot the services were built from.
	AppSettings domain.AppSettings

	closers []func() error
}

// New builds a container. On error every resource opened so far is closed.
func New(ctx context.Context, opts Options) (*Container, error) {
	cfg, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return newContainer(ctx, cfg, opts)
}

func newContainer(ctx context.Context, cfg driven.ConfigStore, opts Options) (*Container, error) {
	c := &Container{
		Settings: services.NewSettingsService(cfg, ai.PingEmbedding),
	}
	settings, err := c.Settings.Get()
	if err != nil {
		return nil, err
	}
	c.AppSettings = *settings
	if opts.SettingsOnly {
		return c, nil
	}

	if err := c.wire(ctx, opts); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) wire(ctx context.Context, opts Options) error {
	settings := c.AppSettings

	embedder, err := ai.CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return fmt.Errorf("%w: %w. Run 'litsearch settings set' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	c.closers = append(c.closers, embedder.Close)
	logger.Debug("Embedding: %s/%s (%d dims)", settings.Embedding.Provider, embedder.ModelName(), embedder.Dimensions())

	articles, vectors, err := c.openStores(ctx, settings.Storage, opts, embedder.Dimensions())
	if err != nil {
		return err
	}

	c.Ingest = services.NewSyncCoordinator(articles, vectors, embedder)
	if settings.Events.Enabled() {
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: settings.Events.KafkaBrokers,
			Topic:   settings.Events.KafkaTopic,
		})
		if err != nil {
			return fmt.Errorf("creating event publisher: %w", err)
		}
		c.closers = append(c.closers, publisher.Close)
		c.Ingest.SetEventPublisher(publisher)
		logger.Debug("Publishing ingest events to %s", settings.Events.KafkaTopic)
	}

	topK := settings.Query.TopK
	if opts.TopK > 0 {
		topK = opts.TopK
	}
	c.Query = services.NewQueryEngine(articles, vectors, embedder, topK)
	c.Export = services.NewExportService(csvexport.NewExporter(), c.Query)
	return nil
}

func (c *Container) openStores(
	ctx context.Context, storage domain.StorageSettings, opts Options, dim int,
) (driven.ArticleStore, driven.VectorStore, error) {
	backend := storage.Backend
	if opts.Ephemeral {
		backend = domain.StorageMemory
	}
	logger.Debug("Storage backend: %s", backend)

	switch backend {
	case domain.StorageMemory:
		return memory.NewArticleStore(), memory.NewVectorStore(dim), nil
	case domain.StoragePostgres:
		store, err := postgres.NewStore(ctx, storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store.ArticleStore(), store.VectorStore(dim), nil
	case domain.StorageSQLite:
		store, err := sqlite.NewStore(opts.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		c.closers = append(c.closers, store.Close)
		return store.ArticleStore(), store.VectorStore(dim), nil
	default:
		return nil, nil, fmt.Errorf("%w: invalid storage backend %q", domain.ErrInvalidInput, backend)
	}
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
