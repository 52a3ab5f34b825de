package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/logger"
	"github.com/just-ask-ai/justask/internal/metrics"
)

// Ensure QueryRouter implements the interface.
var _ driving.QueryService = (*QueryRouter)(nil)

// queryTaker is implemented by classifiers that generate the query while
// classifying.
type queryTaker interface {
	TakeQuery(question string) (string, bool)
}

// QueryRouter classifies each question and answers it through exactly one
// path: a structured query or retrieval plus consolidation.
type QueryRouter struct {
	classifier   driving.QueryClassifier
	structured   *StructuredQueryService
	consolidator *RetrievalConsolidator
	extractor    *FilterExtractor
	policy       domain.FailurePolicy

	mu   sync.RWMutex
	last *domain.Exchange
}

// NewQueryRouter creates a new query router.
// extractor is optional; when nil, only caller-supplied filters are used.
func NewQueryRouter(
	classifier driving.QueryClassifier,
	structured *StructuredQueryService,
	consolidator *RetrievalConsolidator,
	extractor *FilterExtractor,
	policy domain.FailurePolicy,
) *QueryRouter {
	if !policy.IsValid() {
		policy = domain.FailureFallback
	}
	return &QueryRouter{
		classifier:   classifier,
		structured:   structured,
		consolidator: consolidator,
		extractor:    extractor,
		policy:       policy,
	}
}

// Ask answers one question.
func (r *QueryRouter) Ask(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	start := time.Now()
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}

	intent, err := r.classifier.Classify(ctx, question)
	if err != nil {
		logger.Warn("Classification failed, using retrieval: %v", err)
		intent = domain.IntentSemantic
	}
	logger.Debug("Question %q classified as %s", question, intent)

	var answer *domain.Answer
	if intent == domain.IntentStructured {
		answer, err = r.answerStructured(ctx, question)
		var qerr *domain.QueryExecutionError
		if err != nil && r.policy == domain.FailureFallback && errors.As(err, &qerr) {
			logger.Warn("Structured query failed, falling back to retrieval: %v", err)
			metrics.Fallback()
			answer, err = r.answerSemantic(ctx, question, req.Filters)
			if answer != nil {
				answer.FellBack = true
				answer.Query = qerr.Query
			}
		}
	} else {
		answer, err = r.answerSemantic(ctx, question, req.Filters)
	}

	metrics.Query(string(intent), err, time.Since(start))
	if err != nil {
		r.remember(question, err.Error())
		return nil, err
	}

	answer.Question = question
	answer.Duration = time.Since(start)
	r.remember(question, answer.Response)
	return answer, nil
}

// LastExchange returns the most recent question and response.
func (r *QueryRouter) LastExchange() (domain.Exchange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return domain.Exchange{}, false
	}
	return *r.last, true
}

func (r *QueryRouter) answerStructured(ctx context.Context, question string) (*domain.Answer, error) {
	if taker, ok := r.classifier.(queryTaker); ok {
		if query, ok := taker.TakeQuery(question); ok {
			return r.structured.Execute(ctx, question, query)
		}
	}
	return r.structured.Answer(ctx, question)
}

func (r *QueryRouter) answerSemantic(
	ctx context.Context,
	question string,
	filters domain.MetadataFilter,
) (*domain.Answer, error) {
	if len(filters) == 0 && r.extractor != nil {
		extracted, err := r.extractor.Extract(ctx, question)
		if err != nil {
			logger.Warn("Filter extraction failed, searching unfiltered: %v", err)
		} else if len(extracted) > 0 {
			logger.Debug("Extracted filters: %v", extracted)
			filters = extracted
		}
	}
	return r.consolidator.Consolidate(ctx, question, filters)
}

func (r *QueryRouter) remember(question, response string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &domain.Exchange{Query: question, Response: response, At: time.Now()}
}
