package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ClassifierKind selects the Query Classifier implementation.
type ClassifierKind string

const (
	// ClassifierKeyword matches a fixed structured vocabulary.
	ClassifierKeyword ClassifierKind = "keyword"

	// ClassifierGenerative attempts query generation and inspects the result.
	ClassifierGenerative ClassifierKind = "generative"
)

// IsValid returns true if the classifier kind is recognised.
func (k ClassifierKind) IsValid() bool {
	return k == ClassifierKeyword || k == ClassifierGenerative
}

// FailurePolicy decides what happens when a structured query fails.
type FailurePolicy string

const (
	// FailureFallback reroutes the question to semantic retrieval.
	FailureFallback FailurePolicy = "fallback"

	// FailureError returns the QueryExecutionError to the caller.
	FailureError FailurePolicy = "error"
)

// IsValid returns true if the policy is recognised.
func (p FailurePolicy) IsValid() bool {
	return p == FailureFallback || p == FailureError
}

// IndexBackend selects where documents and embeddings are stored.
type IndexBackend string

const (
	// IndexBackendSQLite keeps vectors in the local sqlite database.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendQdrant keeps vectors in a Qdrant collection.
	IndexBackendQdrant IndexBackend = "qdrant"

	// IndexBackendMemory keeps vectors in process memory. Nothing survives a restart.
	IndexBackendMemory IndexBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendSQLite, IndexBackendQdrant, IndexBackendMemory:
		return true
	}
	return false
}

// SyncSettings holds index synchronisation configuration.
type SyncSettings struct {
	PageSize   int
	BatchSize  int
	MaxRows    int
	BatchDelay time.Duration

	// Interval is how often the scheduler runs a sync.
	Interval time.Duration
}

// RetrievalSettings holds Retrieval Consolidator configuration.
type RetrievalSettings struct {
	// Cap is the maximum number of documents requested from the index.
	Cap int

	// StuffThreshold is the largest result count consolidated in one call.
	StuffThreshold int

	// MapBatchSize is the number of documents summarised per map call.
	MapBatchSize int

	// MapConcurrency bounds concurrent map calls.
	MapConcurrency int
}

// RouterSettings holds query routing configuration.
type RouterSettings struct {
	Classifier       ClassifierKind
	OnFailure        FailurePolicy
	ExtractFilters   bool
	SummariseResults bool
}

// IndexSettings holds semantic index configuration.
type IndexSettings struct {
	Backend IndexBackend

	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
}

// DatasetSettings holds configuration for the remote dataset importer.
type DatasetSettings struct {
	BaseURL  string
	Resource string
	PageSize int

	// AppToken is an optional Socrata application token.
	AppToken string
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	Addr        string
	CORSOrigins []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Sync      SyncSettings
	Retrieval RetrievalSettings
	Router    RouterSettings
	Index     IndexSettings
	Dataset   DatasetSettings
	Server    ServerSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Sync: SyncSettings{
			PageSize:   16000,
			BatchSize:  2000,
			MaxRows:    0,
			BatchDelay: 3 * time.Second,
			Interval:   24 * time.Hour,
		},
		Retrieval: RetrievalSettings{
			Cap:            15000,
			StuffThreshold: 50,
			MapBatchSize:   50,
			MapConcurrency: 4,
		},
		Router: RouterSettings{
			Classifier: ClassifierKeyword,
			OnFailure:  FailureFallback,
		},
		Index: IndexSettings{
			Backend:          IndexBackendSQLite,
			QdrantHost:       "localhost",
			QdrantPort:       6334,
			QdrantCollection: "vector_embeds",
		},
		Dataset: DatasetSettings{
			BaseURL:  "https://data.iowa.gov",
			Resource: "cc6f-sgik",
			PageSize: 50000,
		},
		Server: ServerSettings{
			Addr:        ":8000",
			CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
