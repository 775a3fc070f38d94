package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
	"github.com/custodia-labs/litsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedRateLimit = "embedding.rate_limit"
	keyStorageBackend = "storage.backend"
	keyPostgresDSN    = "storage.postgres_dsn"
	keyQueryTopK      = "query.top_k"
	keyIngestWorkers  = "ingest.workers"
	keyKafkaBrokers   = "events.kafka_brokers"
	keyKafkaTopic     = "events.kafka_topic"
)

// SettingKeys lists every key accepted by Set, in display order.
var SettingKeys = []string{
	keyEmbedProvider,
	keyEmbedModel,
	keyEmbedBaseURL,
	keyEmbedAPIKey,
	keyEmbedDims,
	keyEmbedRateLimit,
	keyStorageBackend,
	keyPostgresDSN,
	keyQueryTopK,
	keyIngestWorkers,
	keyKafkaBrokers,
	keyKafkaTopic,
}

// EmbeddingPinger builds an embedding service from settings and pings it.
type EmbeddingPinger func(ctx context.Context, settings domain.EmbeddingSettings) error

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	pinger      EmbeddingPinger
}

// NewSettingsService creates a new settings service.
// The pinger is optional; without it ValidateEmbeddingConfig only checks fields.
func NewSettingsService(configStore driven.ConfigStore, pinger EmbeddingPinger) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		pinger:      pinger,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
			RateLimit:  s.getFloat(keyEmbedRateLimit, defaults.Embedding.RateLimit),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			PostgresDSN: s.configStore.GetString(keyPostgresDSN),
		},
		Query: domain.QuerySettings{
			TopK: s.getInt(keyQueryTopK, defaults.Query.TopK),
		},
		Ingest: domain.IngestSettings{
			Workers: s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
		},
		Events: domain.EventSettings{
			KafkaBrokers: s.configStore.GetStringSlice(keyKafkaBrokers),
			KafkaTopic:   s.getString(keyKafkaTopic, defaults.Events.KafkaTopic),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyQueryTopK, settings.Query.TopK},
		{keyIngestWorkers, settings.Ingest.Workers},
		{keyKafkaBrokers, settings.Events.KafkaBrokers},
		{keyKafkaTopic, settings.Events.KafkaTopic},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set so an env-provided value is not persisted as empty.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.Storage.PostgresDSN != "" {
		if err := s.configStore.Set(keyPostgresDSN, settings.Storage.PostgresDSN); err != nil {
			return fmt.Errorf("save %s: %w", keyPostgresDSN, err)
		}
	}

	return nil
}

// Set updates one setting from its string form, validating it first.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var stored any
	switch key {
	case keyEmbedProvider:
		p := domain.EmbeddingProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, value)
		}
		stored = value
	case keyStorageBackend:
		b := domain.StorageBackend(value)
		if !b.IsValid() {
			return fmt.Errorf("%w: invalid storage backend: %s", domain.ErrInvalidInput, value)
		}
		stored = value
	case keyEmbedDims, keyQueryTopK, keyIngestWorkers:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case keyEmbedRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		stored = f
	case keyKafkaBrokers:
		var brokers []string
		for _, b := range strings.Split(value, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		stored = brokers
	case keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyPostgresDSN, keyKafkaTopic:
		stored = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.configStore.Set(key, stored)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Only Ollama needs a base URL by default
	switch provider {
	case domain.EmbeddingProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Update vector dimensions based on model
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetStorageBackend configures where articles and vectors live.
func (s *SettingsService) SetStorageBackend(backend domain.StorageBackend, dsn string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", backend)
	}
	if backend == domain.StoragePostgres && dsn == "" {
		return fmt.Errorf("connection string required for %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Storage.Backend = backend
	if dsn != "" {
		settings.Storage.PostgresDSN = dsn
	}
	return s.Save(settings)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", settings.Storage.Backend)
	}
	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage backend %q requires %s", domain.StoragePostgres, keyPostgresDSN)
	}
	if settings.Query.TopK <= 0 {
		return fmt.Errorf("%s must be positive", keyQueryTopK)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ConfigPath returns where settings are persisted.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// UnknownKeys returns stored keys that no setting reads, usually typos in a
// hand-edited config file.
func (s *SettingsService) UnknownKeys() []string {
	known := make(map[string]struct{}, len(SettingKeys))
	for _, k := range SettingKeys {
		known[k] = struct{}{}
	}
	var unknown []string
	for _, k := range s.configStore.Keys() {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if s.pinger == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.pinger(ctx, settings.Embedding); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return defaultVal
		}
		return f
	default:
		return defaultVal
	}
}

func (s *SettingsService) getProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
