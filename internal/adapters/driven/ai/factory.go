// Package ai provides factory functions for creating AI service adapters
// and the semantic index they feed.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/just-ask-ai/justask/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/just-ask-ai/justask/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/just-ask-ai/justask/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/just-ask-ai/justask/internal/adapters/driven/llm/ollama"
	openaillm "github.com/just-ask-ai/justask/internal/adapters/driven/llm/openai"
	"github.com/just-ask-ai/justask/internal/adapters/driven/storage/memory"
	"github.com/just-ask-ai/justask/internal/adapters/driven/storage/qdrant"
	"github.com/just-ask-ai/justask/internal/adapters/driven/storage/sqlite"
	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to provider errors.
const fixHint = "Run 'justask settings set' to fix"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Index            driven.SemanticIndex
	Warnings         []string // Non-fatal issues, such as an unreachable provider.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Index != nil {
		r.Index.Close()
	}
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedding service, LLM service and semantic index from
// settings. Unreachable providers are reported as warnings so commands that
// only need part of the stack still start. store may be nil unless the
// sqlite backend is selected.
func Init(settings *domain.AppSettings, store *sqlite.Store) (*InitResult, error) {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("embedding service unavailable: %v", err)
	}
	result.EmbeddingService = embedder

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("llm service unavailable: %v", err)
	}
	result.LLMService = llm

	index, err := CreateSemanticIndex(&settings.Index, store, embedder)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.Index = index

	return result, nil
}

// CreateSemanticIndex creates the index selected by settings.Backend.
// embedder may be nil; searches then fail with ErrEmbeddingUnavailable.
func CreateSemanticIndex(
	settings *domain.IndexSettings,
	store *sqlite.Store,
	embedder driven.EmbeddingService,
) (driven.SemanticIndex, error) {
	switch settings.Backend {
	case domain.IndexBackendSQLite, "":
		if store == nil {
			return nil, fmt.Errorf("%w: sqlite index requires a store", domain.ErrIndexUnavailable)
		}
		return store.SemanticIndex(embedder), nil

	case domain.IndexBackendQdrant:
		idx, err := qdrant.New(qdrant.Config{
			Host:       settings.QdrantHost,
			Port:       settings.QdrantPort,
			Collection: settings.QdrantCollection,
		}, embedder)
		if err != nil {
			return nil, err
		}
		return idx, nil

	case domain.IndexBackendMemory:
		return memory.NewIndex(embedder), nil

	default:
		return nil, fmt.Errorf("%w: unsupported index backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	return svc, nil
}

// CheckProviders pings both configured providers and joins their errors.
// An unconfigured provider is not an error.
func CheckProviders(settings *domain.AppSettings) error {
	var errs []error

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		errs = append(errs, err)
	} else if embedder != nil {
		embedder.Close()
	}

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		errs = append(errs, err)
	} else if llm != nil {
		llm.Close()
	}

	return errors.Join(errs...)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings)

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings)

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	svc, err := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createOllamaLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
