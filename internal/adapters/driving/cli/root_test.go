package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/services"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "litsearch", rootCmd.Use)
}

func TestRootCmd_HasCommands(t *testing.T) {
	want := []string{"ingest", "resync", "query", "export", "serve", "mcp", "settings", "version"}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, names[name], "missing command %q", name)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config-dir", "data-dir", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestBootstrap_SkippedForVersion(t *testing.T) {
	setServices(t, nil, nil, nil, nil)
	called := false
	bootstrap = func(context.Context, Options) (*Services, error) {
		called = true
		return &Services{}, nil
	}

	_, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestBootstrap_SettingsOnly(t *testing.T) {
	setServices(t, nil, nil, nil, nil)
	var got Options
	bootstrap = func(_ context.Context, opts Options) (*Services, error) {
		got = opts
		return &Services{
			Settings: services.NewSettingsService(memory.NewConfigStore(), nil),
		}, nil
	}

	out, err := execute(t, "", "--config-dir", "/tmp/cfg", "settings", "show")

	require.NoError(t, err)
	assert.True(t, got.SettingsOnly)
	assert.Equal(t, "/tmp/cfg", got.ConfigDir)
	assert.Contains(t, out, "[Embedding]")
}

func TestBootstrap_QueryPassesTopKAndEphemeral(t *testing.T) {
	setupTestServices(t)
	wired := queryService
	queryService = nil

	var got Options
	closed := false
	bootstrap = func(_ context.Context, opts Options) (*Services, error) {
		got = opts
		return &Services{
			Query: wired,
			Close: func() error { closed = true; return nil },
		}, nil
	}

	out, err := execute(t, "", "--ephemeral", "query", "anything", "--top-k", "7")

	require.NoError(t, err)
	assert.Equal(t, 7, got.TopK)
	assert.True(t, got.Ephemeral)
	assert.False(t, got.SettingsOnly)
	assert.Contains(t, out, "No results found.")
	require.NotNil(t, closeServices)
	require.NoError(t, closeServices())
	assert.True(t, closed)
	closeServices = nil
}

func TestBootstrap_ErrorStopsCommand(t *testing.T) {
	setServices(t, nil, nil, nil, nil)
	bootstrap = func(context.Context, Options) (*Services, error) {
		return nil, fmt.Errorf("%w: postgres down", domain.ErrStoreUnavailable)
	}

	_, err := execute(t, "", "resync")

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"invalid query", fmt.Errorf("query failed: %w", domain.ErrInvalidQuery), ExitInputError},
		{"inverted range", domain.ErrInvalidFilterRange, ExitInputError},
		{"usage", fmt.Errorf("%w: no files", errUsage), ExitInputError},
		{"embedding down", domain.ErrEmbeddingUnavailable, ExitFailure},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
