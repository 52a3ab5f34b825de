package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySyncPageSize   = "sync.page_size"
	keySyncBatchSize  = "sync.embed_batch_size"
	keySyncMaxRows    = "sync.max_rows"
	keySyncBatchDelay = "sync.batch_delay"
	keySyncInterval   = "sync.interval"

	keyRetrievalCap            = "retrieval.cap"
	keyRetrievalStuffThreshold = "retrieval.stuff_threshold"
	keyRetrievalMapBatchSize   = "retrieval.map_batch_size"
	keyRetrievalMapConcurrency = "retrieval.map_concurrency"

	keyRouterClassifier     = "router.classifier"
	keyRouterOnFailure      = "router.on_structured_failure"
	keyRouterExtractFilters = "router.extract_filters"
	keyStructuredSummarise  = "structured.summarise"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyIndexBackend          = "index.backend"
	keyIndexQdrantHost       = "index.qdrant_host"
	keyIndexQdrantPort       = "index.qdrant_port"
	keyIndexQdrantCollection = "index.qdrant_collection"

	keyDatasetBaseURL  = "dataset.base_url"
	keyDatasetResource = "dataset.resource"
	keyDatasetPageSize = "dataset.page_size"
	keyDatasetAppToken = "dataset.app_token"

	keyServerAddr        = "server.addr"
	keyServerCORSOrigins = "server.cors_origins"
)

// valueKind is the storage type of a setting.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindDuration
	kindList
)

// settingSpec describes how a single key is parsed and validated.
type settingSpec struct {
	kind     valueKind
	allowed  []string
	min      int
	positive bool
}

var settingSpecs = map[string]settingSpec{
	keySyncPageSize:   {kind: kindInt, min: 1, positive: true},
	keySyncBatchSize:  {kind: kindInt, min: 1, positive: true},
	keySyncMaxRows:    {kind: kindInt},
	keySyncBatchDelay: {kind: kindDuration},
	keySyncInterval:   {kind: kindDuration},

	keyRetrievalCap:            {kind: kindInt, min: 1, positive: true},
	keyRetrievalStuffThreshold: {kind: kindInt, min: 1, positive: true},
	keyRetrievalMapBatchSize:   {kind: kindInt, min: 2, positive: true},
	keyRetrievalMapConcurrency: {kind: kindInt, min: 1, positive: true},

	keyRouterClassifier:     {kind: kindString, allowed: []string{string(domain.ClassifierKeyword), string(domain.ClassifierGenerative)}},
	keyRouterOnFailure:      {kind: kindString, allowed: []string{string(domain.FailureFallback), string(domain.FailureError)}},
	keyRouterExtractFilters: {kind: kindBool},
	keyStructuredSummarise:  {kind: kindBool},

	keyEmbedProvider: {kind: kindString, allowed: providerNames(domain.AllEmbeddingProviders())},
	keyEmbedModel:    {kind: kindString},
	keyEmbedBaseURL:  {kind: kindString},
	keyEmbedAPIKey:   {kind: kindString},
	keyLLMProvider:   {kind: kindString, allowed: providerNames(domain.AllLLMProviders())},
	keyLLMModel:      {kind: kindString},
	keyLLMBaseURL:    {kind: kindString},
	keyLLMAPIKey:     {kind: kindString},

	keyIndexBackend:          {kind: kindString, allowed: []string{string(domain.IndexBackendSQLite), string(domain.IndexBackendQdrant), string(domain.IndexBackendMemory)}},
	keyIndexQdrantHost:       {kind: kindString},
	keyIndexQdrantPort:       {kind: kindInt, min: 1, positive: true},
	keyIndexQdrantCollection: {kind: kindString},

	keyDatasetBaseURL:  {kind: kindString},
	keyDatasetResource: {kind: kindString},
	keyDatasetPageSize: {kind: kindInt, min: 1, positive: true},
	keyDatasetAppToken: {kind: kindString},

	keyServerAddr:        {kind: kindString},
	keyServerCORSOrigins: {kind: kindList},
}

func providerNames(providers []domain.AIProvider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.String()
	}
	return names
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Sync: domain.SyncSettings{
			PageSize:   s.getInt(keySyncPageSize, defaults.Sync.PageSize),
			BatchSize:  s.getInt(keySyncBatchSize, defaults.Sync.BatchSize),
			MaxRows:    s.getInt(keySyncMaxRows, defaults.Sync.MaxRows),
			BatchDelay: s.getDuration(keySyncBatchDelay, defaults.Sync.BatchDelay),
			Interval:   s.getDuration(keySyncInterval, defaults.Sync.Interval),
		},
		Retrieval: domain.RetrievalSettings{
			Cap:            s.getInt(keyRetrievalCap, defaults.Retrieval.Cap),
			StuffThreshold: s.getInt(keyRetrievalStuffThreshold, defaults.Retrieval.StuffThreshold),
			MapBatchSize:   s.getInt(keyRetrievalMapBatchSize, defaults.Retrieval.MapBatchSize),
			MapConcurrency: s.getInt(keyRetrievalMapConcurrency, defaults.Retrieval.MapConcurrency),
		},
		Router: domain.RouterSettings{
			Classifier:       domain.ClassifierKind(s.getEnum(keyRouterClassifier, string(defaults.Router.Classifier))),
			OnFailure:        domain.FailurePolicy(s.getEnum(keyRouterOnFailure, string(defaults.Router.OnFailure))),
			ExtractFilters:   s.getBool(keyRouterExtractFilters, defaults.Router.ExtractFilters),
			SummariseResults: s.getBool(keyStructuredSummarise, defaults.Router.SummariseResults),
		},
		Index: domain.IndexSettings{
			Backend:          domain.IndexBackend(s.getEnum(keyIndexBackend, string(defaults.Index.Backend))),
			QdrantHost:       s.getString(keyIndexQdrantHost, defaults.Index.QdrantHost),
			QdrantPort:       s.getInt(keyIndexQdrantPort, defaults.Index.QdrantPort),
			QdrantCollection: s.getString(keyIndexQdrantCollection, defaults.Index.QdrantCollection),
		},
		Dataset: domain.DatasetSettings{
			BaseURL:  s.getString(keyDatasetBaseURL, defaults.Dataset.BaseURL),
			Resource: s.getString(keyDatasetResource, defaults.Dataset.Resource),
			PageSize: s.getInt(keyDatasetPageSize, defaults.Dataset.PageSize),
			AppToken: s.configStore.GetString(keyDatasetAppToken),
		},
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, defaults.Server.Addr),
			CORSOrigins: s.getStringSlice(keyServerCORSOrigins, defaults.Server.CORSOrigins),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.getString(keyEmbedBaseURL, defaults.Embedding.BaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.getString(keyLLMBaseURL, defaults.LLM.BaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
	}

	return settings, nil
}

// Set parses value according to the key's type, validates it and persists it.
func (s *SettingsService) Set(key, value string) error {
	spec, ok := settingSpecs[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := spec.parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Keys lists every recognised setting key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingSpecs))
	for k := range settingSpecs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetEmbeddingProvider configures the embedding provider in one step.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	values := map[string]any{
		keyEmbedProvider: provider.String(),
		keyEmbedModel:    model,
		keyEmbedAPIKey:   apiKey,
	}
	if !provider.IsLocal() {
		values[keyEmbedBaseURL] = ""
	}
	return s.setAll(values)
}

// SetLLMProvider configures the LLM provider in one step.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	values := map[string]any{
		keyLLMProvider: provider.String(),
		keyLLMModel:    model,
		keyLLMAPIKey:   apiKey,
	}
	if !provider.IsLocal() {
		values[keyLLMBaseURL] = ""
	}
	return s.setAll(values)
}

func (s *SettingsService) setAll(values map[string]any) error {
	for key, val := range values {
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Validate checks the current settings for inconsistencies.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if settings.Retrieval.StuffThreshold > settings.Retrieval.Cap {
		return fmt.Errorf("retrieval.stuff_threshold (%d) exceeds retrieval.cap (%d)",
			settings.Retrieval.StuffThreshold, settings.Retrieval.Cap)
	}
	if settings.Sync.MaxRows < 0 {
		return fmt.Errorf("sync.max_rows must not be negative")
	}
	if settings.Index.Backend == domain.IndexBackendQdrant && settings.Index.QdrantHost == "" {
		return fmt.Errorf("index.qdrant_host is required for the qdrant backend")
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// parse converts the raw string form of a setting into its stored type.
func (p settingSpec) parse(raw string) (any, error) {
	switch p.kind {
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", raw)
		}
		if p.positive && n < p.min {
			return nil, fmt.Errorf("must be at least %d", p.min)
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("expected a duration such as 3s or 24h, got %q", raw)
		}
		if d < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return raw, nil
	case kindList:
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		if len(p.allowed) > 0 && !slices.Contains(p.allowed, raw) {
			return nil, fmt.Errorf("must be one of %s", strings.Join(p.allowed, ", "))
		}
		return raw, nil
	}
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

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := s.parseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if val := s.configStore.GetStringSlice(key); len(val) > 0 {
		return val
	}
	return defaultVal
}

// getEnum returns the stored value when it is one of the key's allowed values.
func (s *SettingsService) getEnum(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" || !slices.Contains(settingSpecs[key].allowed, val) {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get("scheduler.enabled"); exists {
		defaults.Enabled = s.configStore.GetBool("scheduler.enabled")
	}

	// Per-task config
	// Map from task ID to config key (underscore version for TOML)
	taskKeys := map[string]string{
		domain.TaskIDDatasetImport: "dataset_import",
		domain.TaskIDIndexSync:     "index_sync",
	}

	for taskID, configKey := range taskKeys {
		prefix := "scheduler." + configKey + "."

		taskCfg := defaults.Tasks[taskID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}

		// Duration string like "45m", "1h"
		if interval := s.configStore.GetString(prefix + "interval"); interval != "" {
			if d, err := s.parseDuration(interval); err == nil {
				taskCfg.Interval = d
			}
		}

		defaults.Tasks[taskID] = taskCfg
	}

	// sync.interval drives the index sync task unless scheduler.index_sync.interval is set.
	if s.configStore.GetString("scheduler.index_sync.interval") == "" {
		if interval := s.configStore.GetString(keySyncInterval); interval != "" {
			if d, err := s.parseDuration(interval); err == nil && d > 0 {
				cfg := defaults.Tasks[domain.TaskIDIndexSync]
				cfg.Interval = d
				defaults.Tasks[domain.TaskIDIndexSync] = cfg
			}
		}
	}

	return defaults
}

// parseDuration parses a duration string.
func (s *SettingsService) parseDuration(str string) (time.Duration, error) {
	return time.ParseDuration(str)
}
