package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litsearch/internal/core/domain"
)

func newTestContainer(t *testing.T, values map[string]any, opts Options) (*Container, error) {
	t.Helper()
	c, err := newContainer(context.Background(), memory.NewConfigStoreFrom(values), opts)
	if c != nil {
		t.Cleanup(func() { _ = c.Close() })
	}
	return c, err
}

func TestNew_SettingsOnly(t *testing.T) {
	c, err := newTestContainer(t, nil, Options{SettingsOnly: true})

	require.NoError(t, err)
	assert.NotNil(t, c.Settings)
	assert.Nil(t, c.Ingest)
	assert.Nil(t, c.Query)
	assert.Equal(t, domain.StorageSQLite, c.AppSettings.Storage.Backend)
}

func TestNew_EphemeralRoundTrip(t *testing.T) {
	c, err := newTestContainer(t, map[string]any{"embedding.dimensions": 128}, Options{Ephemeral: true})
	require.NoError(t, err)
	ctx := context.Background()

	outcome := c.Ingest.IngestRaw(ctx, domain.RawArticle{
		Title:    "Proton therapy for paediatric tumours",
		Source:   "nature.com",
		Abstract: "Proton therapy spares healthy tissue in children.",
	})
	require.Equal(t, domain.StatusSynced, outcome.Status)

	results, err := c.Query.Query(ctx, "proton therapy", domain.QueryFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, outcome.Key, results[0].Article.Key)
}

func TestNew_TopKOverride(t *testing.T) {
	c, err := newTestContainer(t, map[string]any{"query.top_k": 20}, Options{Ephemeral: true, TopK: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Query.TopK())

	c, err = newTestContainer(t, map[string]any{"query.top_k": 20}, Options{Ephemeral: true})
	require.NoError(t, err)
	assert.Equal(t, 20, c.Query.TopK())
}

func TestNew_SQLiteUnderDataDir(t *testing.T) {
	dir := t.TempDir()

	c, err := newTestContainer(t, map[string]any{"storage.backend": "sqlite"}, Options{DataDir: dir})
	require.NoError(t, err)
	require.NotNil(t, c.Ingest)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestNew_PostgresWithoutDSN(t *testing.T) {
	_, err := newTestContainer(t, map[string]any{"storage.backend": "postgres"}, Options{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_EmbeddingNotConfigured(t *testing.T) {
	_, err := newTestContainer(t, map[string]any{"embedding.provider": "openai"}, Options{Ephemeral: true})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNew_EventsEnabled(t *testing.T) {
	c, err := newTestContainer(t, map[string]any{
		"events.kafka_brokers": []string{"localhost:9092"},
	}, Options{Ephemeral: true})

	require.NoError(t, err)
	assert.Len(t, c.closers, 2)
}

func TestNew_FileConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[query]\ntop_k = 7\n"), 0o600))

	c, err := New(context.Background(), Options{ConfigDir: dir, SettingsOnly: true})

	require.NoError(t, err)
	assert.Equal(t, 7, c.AppSettings.Query.TopK)
}
