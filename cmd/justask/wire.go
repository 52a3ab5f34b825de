package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/just-ask-ai/justask/internal/adapters/driven/ai"
	"github.com/just-ask-ai/justask/internal/adapters/driven/config/file"
	"github.com/just-ask-ai/justask/internal/adapters/driven/dataset/socrata"
	"github.com/just-ask-ai/justask/internal/adapters/driven/storage/memory"
	"github.com/just-ask-ai/justask/internal/adapters/driven/storage/sqlite"
	"github.com/just-ask-ai/justask/internal/adapters/driving/cli"
	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/core/services"
	"github.com/just-ask-ai/justask/internal/logger"
)

// importPageDelay spaces dataset requests so the public API is not hammered.
const importPageDelay = time.Second

// Environment variables consulted when the matching API key is unset.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envSocrataToken = "SOCRATA_APP_TOKEN"
)

// build wires every adapter and service for one process.
func build(_ context.Context, opts cli.BuildOptions) (*cli.Services, error) {
	dataDir, cleanupDir, err := resolveDataDir(opts)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	if cleanupDir != nil {
		closers = append(closers, cleanupDir)
	}
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.Services, error) {
		_ = closeAll()
		return nil, err
	}

	// Configuration
	var (
		configStore driven.ConfigStore
		fileConfig  *file.ConfigStore
	)
	if opts.Ephemeral {
		configStore = memory.NewConfigStore()
	} else {
		fileConfig, err = file.NewConfigStore(dataDir)
		if err != nil {
			return fail(fmt.Errorf("opening config: %w", err))
		}
		configStore = fileConfig
	}

	prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		return fail(fmt.Errorf("opening prompts: %w", err))
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fail(fmt.Errorf("loading settings: %w", err))
	}
	applyEnvironment(settings)

	// Storage
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fail(fmt.Errorf("opening store: %w", err))
	}
	closers = append(closers, store.Close)
	logger.Debug("store opened at %s", store.Path())

	// AI providers and the semantic index
	aiServices, err := ai.Init(settings, store)
	if err != nil {
		return fail(fmt.Errorf("initialising AI services: %w", err))
	}
	closers = append(closers, func() error {
		aiServices.Close()
		return nil
	})

	sales := store.Sales()

	// Query routing
	structured := services.NewStructuredQueryService(sales, aiServices.LLMService, prompts, settings.Router.SummariseResults)

	var classifier driving.QueryClassifier = services.NewKeywordClassifier()
	if settings.Router.Classifier == domain.ClassifierGenerative {
		classifier = services.NewGenerativeClassifier(structured)
	}

	var extractor *services.FilterExtractor
	if settings.Router.ExtractFilters {
		extractor = services.NewFilterExtractor(aiServices.LLMService, prompts)
	}

	consolidator := services.NewRetrievalConsolidator(aiServices.Index, aiServices.LLMService, prompts, settings.Retrieval)
	router := services.NewQueryRouter(classifier, structured, consolidator, extractor, settings.Router.OnFailure)

	// Index sync and dataset import
	indexer := services.NewIndexUpdater(sales, aiServices.Index, services.NewDocumentSynthesizer(), settings.Sync)

	source, err := socrata.New(socrata.Config{
		BaseURL:  settings.Dataset.BaseURL,
		Resource: settings.Dataset.Resource,
		AppToken: settings.Dataset.AppToken,
	})
	if err != nil {
		return fail(err)
	}
	importer := services.NewDatasetImporter(source, sales, settings.Dataset.PageSize, importPageDelay)

	schedulerConfig := settingsService.GetSchedulerConfig()
	scheduler := services.NewScheduler(schedulerConfig, store.SchedulerStore(), importer, indexer)

	svc := &cli.Services{
		Query:           router,
		Index:           indexer,
		Import:          importer,
		Stats:           services.NewStatsService(sales, sales, aiServices.Index),
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: schedulerConfig,
		CheckProviders: func() error {
			current, err := settingsService.Get()
			if err != nil {
				return err
			}
			applyEnvironment(current)
			return ai.CheckProviders(current)
		},
		Close: closeAll,
	}

	if fileConfig != nil {
		watcher, err := file.NewWatcher(fileConfig, prompts)
		if err != nil {
			logger.Warn("config hot reload disabled: %v", err)
		} else {
			watcher.OnReload = func(configChanged, promptsChanged bool) {
				if promptsChanged {
					logger.Info("prompt templates reloaded")
				}
				if configChanged {
					logger.Info("config.toml changed; provider and storage settings apply on restart")
				}
			}
			svc.Watcher = watcher
		}
	}

	return svc, nil
}

// resolveDataDir picks the data directory. Ephemeral runs get a temporary
// directory that is removed on close.
func resolveDataDir(opts cli.BuildOptions) (string, func() error, error) {
	if opts.Ephemeral {
		dir, err := os.MkdirTemp("", "justask-*")
		if err != nil {
			return "", nil, fmt.Errorf("creating temporary data directory: %w", err)
		}
		return dir, func() error { return os.RemoveAll(dir) }, nil
	}

	dir := opts.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", nil, fmt.Errorf("finding home directory: %w", err)
		}
		dir = filepath.Join(home, ".justask")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", nil, fmt.Errorf("creating data directory: %w", err)
	}
	return dir, nil, nil
}

// applyEnvironment fills unset credentials from the environment. Nothing is
// written back to the config file.
func applyEnvironment(settings *domain.AppSettings) {
	keyFor := func(p domain.AIProvider) string {
		switch p {
		case domain.AIProviderOpenAI:
			return os.Getenv(envOpenAIKey)
		case domain.AIProviderAnthropic:
			return os.Getenv(envAnthropicKey)
		default:
			return ""
		}
	}

	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = keyFor(settings.LLM.Provider)
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = keyFor(settings.Embedding.Provider)
	}
	if settings.Dataset.AppToken == "" {
		settings.Dataset.AppToken = os.Getenv(envSocrataToken)
	}
}
