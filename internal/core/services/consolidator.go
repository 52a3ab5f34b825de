package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/logger"
	"github.com/just-ask-ai/justask/internal/metrics"
)

// emptyRetrievalResponse is returned when a search matches nothing.
const emptyRetrievalResponse = "No matching sales records were found for this question."

// RetrievalConsolidator answers questions from documents returned by a
// similarity search. Small result sets are answered in one call; larger
// ones are summarised in sub-batches whose summaries are then combined, so
// no single call receives more than a bounded number of documents.
type RetrievalConsolidator struct {
	index    driven.SemanticIndex
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings domain.RetrievalSettings
}

// NewRetrievalConsolidator creates a new consolidator.
func NewRetrievalConsolidator(
	index driven.SemanticIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.RetrievalSettings,
) *RetrievalConsolidator {
	if settings.MapBatchSize <= 0 {
		settings.MapBatchSize = settings.StuffThreshold
	}
	if settings.MapBatchSize <= 1 {
		settings.MapBatchSize = 2
	}
	if settings.MapConcurrency <= 0 {
		settings.MapConcurrency = 1
	}
	return &RetrievalConsolidator{
		index:    index,
		llm:      llm,
		prompts:  prompts,
		settings: settings,
	}
}

// Strategy returns the consolidation strategy for n retrieved documents.
func (c *RetrievalConsolidator) Strategy(n int) domain.Strategy {
	switch {
	case n <= 0:
		return domain.StrategyNone
	case n <= c.settings.StuffThreshold:
		return domain.StrategyStuff
	default:
		return domain.StrategyMapReduce
	}
}

// Consolidate searches the index and produces an answer for question.
// An empty retrieval is a valid, low-confidence answer rather than an error.
func (c *RetrievalConsolidator) Consolidate(
	ctx context.Context,
	question string,
	filter domain.MetadataFilter,
) (*domain.Answer, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	results, err := c.index.Search(ctx, question, c.settings.Cap, filter)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	answer := &domain.Answer{
		Question:  question,
		Intent:    domain.IntentSemantic,
		Documents: len(results),
		Strategy:  c.Strategy(len(results)),
	}
	logger.Debug("Retrieved %d documents, strategy %q", len(results), answer.Strategy)

	summaries := make([]string, len(results))
	for i := range results {
		summaries[i] = results[i].Document.Summary
	}

	switch answer.Strategy {
	case domain.StrategyNone:
		logger.Debug("%v for %q", domain.ErrRetrievalEmpty, question)
		answer.Response = emptyRetrievalResponse
		return answer, nil
	case domain.StrategyStuff:
		answer.Response, err = c.stuff(ctx, question, summaries)
	default:
		answer.Response, err = c.mapReduce(ctx, question, summaries)
	}
	if err != nil {
		return nil, err
	}

	metrics.Consolidation(string(answer.Strategy))
	return answer, nil
}

func (c *RetrievalConsolidator) stuff(ctx context.Context, question string, summaries []string) (string, error) {
	return generate(ctx, c.llm, c.prompts, driven.PromptAnswerStuff, map[string]string{
		"context":  strings.Join(summaries, "\n"),
		"question": question,
	})
}

// mapReduce summarises fixed-size sub-batches concurrently, then combines
// the partial summaries. Summaries that still exceed one batch are combined
// in further rounds before the final answer.
func (c *RetrievalConsolidator) mapReduce(ctx context.Context, question string, summaries []string) (string, error) {
	partials, err := c.mapBatches(ctx, question, driven.PromptMapSummary, "context", summaries)
	if err != nil {
		return "", err
	}

	for len(partials) > c.settings.MapBatchSize {
		logger.Debug("Collapsing %d partial summaries", len(partials))
		partials, err = c.mapBatches(ctx, question, driven.PromptReduceCombine, "summaries", partials)
		if err != nil {
			return "", err
		}
	}

	return generate(ctx, c.llm, c.prompts, driven.PromptReduceCombine, map[string]string{
		"summaries": strings.Join(partials, "\n\n"),
		"question":  question,
	})
}

func (c *RetrievalConsolidator) mapBatches(
	ctx context.Context,
	question, prompt, slot string,
	texts []string,
) ([]string, error) {
	batches := chunk(texts, c.settings.MapBatchSize)
	out := make([]string, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.settings.MapConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			summary, err := generate(gctx, c.llm, c.prompts, prompt, map[string]string{
				slot:       strings.Join(batch, "\n"),
				"question": question,
			})
			if err != nil {
				return fmt.Errorf("batch %d: %w", i+1, err)
			}
			out[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
