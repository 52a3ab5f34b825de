package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/adapters/driven/storage/memory"
	"github.com/just-ask-ai/justask/internal/core/domain"
)

// failingConfigStore fails on Save.
type failingConfigStore struct {
	*memory.ConfigStore
}

func (f failingConfigStore) Save() error {
	return errors.New("disk full")
}

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Sync, settings.Sync)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Router, settings.Router)
	assert.Equal(t, defaults.Index, settings.Index)
	assert.Equal(t, defaults.Server.CORSOrigins, settings.Server.CORSOrigins)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("sync.page_size", 500)
	_ = store.Set("sync.batch_delay", "250ms")
	_ = store.Set("retrieval.stuff_threshold", 10)
	_ = store.Set("router.classifier", "generative")
	_ = store.Set("router.on_structured_failure", "error")
	_ = store.Set("router.extract_filters", true)
	_ = store.Set("index.backend", "qdrant")
	_ = store.Set("server.cors_origins", []any{"http://example.com"})
	_ = store.Set("llm.provider", "anthropic")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, 500, settings.Sync.PageSize)
	assert.Equal(t, 250*time.Millisecond, settings.Sync.BatchDelay)
	assert.Equal(t, 10, settings.Retrieval.StuffThreshold)
	assert.Equal(t, domain.ClassifierGenerative, settings.Router.Classifier)
	assert.Equal(t, domain.FailureError, settings.Router.OnFailure)
	assert.True(t, settings.Router.ExtractFilters)
	assert.Equal(t, domain.IndexBackendQdrant, settings.Index.Backend)
	assert.Equal(t, []string{"http://example.com"}, settings.Server.CORSOrigins)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("router.classifier", "magic")
	_ = store.Set("index.backend", "postgres")
	_ = store.Set("sync.batch_delay", "soon")
	_ = store.Set("embedding.provider", "invalid_provider")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Router.Classifier, settings.Router.Classifier)
	assert.Equal(t, defaults.Index.Backend, settings.Index.Backend)
	assert.Equal(t, defaults.Sync.BatchDelay, settings.Sync.BatchDelay)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  any
	}{
		{"int", "retrieval.cap", "200", 200},
		{"zero max rows", "sync.max_rows", "0", 0},
		{"bool", "structured.summarise", "true", true},
		{"duration kept as string", "sync.batch_delay", "5s", "5s"},
		{"enum", "router.on_structured_failure", "error", "error"},
		{"list", "server.cors_origins", "http://a, http://b,", []string{"http://a", "http://b"}},
		{"trimmed", "llm.model", "  llama3.1 ", "llama3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store)

			require.NoError(t, service.Set(tt.key, tt.value))

			got, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "search.mode", "hybrid"},
		{"not an int", "sync.page_size", "lots"},
		{"below minimum", "retrieval.map_batch_size", "1"},
		{"not a bool", "router.extract_filters", "maybe"},
		{"bad duration", "sync.interval", "daily"},
		{"negative duration", "sync.batch_delay", "-1s"},
		{"bad enum", "index.backend", "postgres"},
		{"unsupported embedding provider", "embedding.provider", "anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store)

			err := service.Set(tt.key, tt.value)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			_, stored := store.Get(tt.key)
			assert.False(t, stored)
		})
	}
}

func TestSettingsService_Set_SaveError(t *testing.T) {
	service := NewSettingsService(failingConfigStore{memory.NewConfigStore()})

	err := service.Set("retrieval.cap", "10")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()

	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "sync.page_size")
	assert.Contains(t, keys, "router.on_structured_failure")
	assert.Contains(t, keys, "index.qdrant_collection")
	assert.Len(t, keys, len(settingSpecs))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_SetEmbeddingProvider_Rejects(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	err := service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.base_url", "http://gpu-box:11434")
	service := NewSettingsService(store)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "qwen2.5", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "qwen2.5", settings.LLM.Model)
	assert.Equal(t, "http://gpu-box:11434", settings.LLM.BaseURL)
}

func TestSettingsService_SetLLMProvider_RequiresAPIKey(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	err := service.SetLLMProvider(domain.AIProviderAnthropic, "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{name: "defaults", values: nil},
		{
			name:    "openai llm without key",
			values:  map[string]any{"llm.provider": "openai"},
			wantErr: "LLM provider",
		},
		{
			name:    "openai embedding without key",
			values:  map[string]any{"embedding.provider": "openai"},
			wantErr: "embedding provider",
		},
		{
			name:    "threshold above cap",
			values:  map[string]any{"retrieval.cap": 10, "retrieval.stuff_threshold": 20},
			wantErr: "stuff_threshold",
		},
		{
			name:    "negative max rows",
			values:  map[string]any{"sync.max_rows": -5},
			wantErr: "max_rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.values {
				_ = store.Set(k, v)
			}

			err := NewSettingsService(store).Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSettingsService_GetSchedulerConfig_Defaults(t *testing.T) {
	cfg := NewSettingsService(memory.NewConfigStore()).GetSchedulerConfig()

	assert.Equal(t, domain.DefaultSchedulerConfig(), cfg)
}

func TestSettingsService_GetSchedulerConfig_Overrides(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("scheduler.enabled", false)
	_ = store.Set("scheduler.dataset_import.enabled", true)
	_ = store.Set("scheduler.dataset_import.interval", "12h")
	_ = store.Set("scheduler.index_sync.interval", "not-a-duration")

	cfg := NewSettingsService(store).GetSchedulerConfig()

	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.Tasks[domain.TaskIDDatasetImport].Enabled)
	assert.Equal(t, 12*time.Hour, cfg.Tasks[domain.TaskIDDatasetImport].Interval)
	assert.Equal(t, 24*time.Hour, cfg.Tasks[domain.TaskIDIndexSync].Interval)
}

func TestSettingsService_GetSchedulerConfig_SyncInterval(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("sync.interval", "6h")

	cfg := NewSettingsService(store).GetSchedulerConfig()

	assert.Equal(t, 6*time.Hour, cfg.Tasks[domain.TaskIDIndexSync].Interval)
}
