package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

// fixedClassifier implements driving.QueryClassifier with a canned answer.
type fixedClassifier struct {
	intent domain.Intent
	err    error
	calls  int
}

func (f *fixedClassifier) Classify(_ context.Context, _ string) (domain.Intent, error) {
	f.calls++
	return f.intent, f.err
}

type routerFixture struct {
	source *mockAggregateSource
	index  *mockSemanticIndex
	llm    *mockLLMService
}

// newRouterFixture wires a router whose LLM writes queryText for SQL prompts
// and "semantic answer" for everything else.
func newRouterFixture(queryText string) *routerFixture {
	f := &routerFixture{
		source: tableOnlySource(&domain.TabularResult{Columns: []string{"n"}, Rows: [][]any{{int64(7)}}}),
		index:  newMockSemanticIndex(),
		llm: &mockLLMService{respond: func(prompt string) (string, error) {
			if strings.HasPrefix(prompt, "[sql_generation]") {
				return queryText, nil
			}
			if strings.HasPrefix(prompt, "[filter_extraction]") {
				return `{"city": "Ames"}`, nil
			}
			return "semantic answer", nil
		}},
	}
	f.index.results = scoredDocs(3)
	return f
}

func (f *routerFixture) router(
	classifier driving.QueryClassifier,
	extract bool,
	policy domain.FailurePolicy,
) *QueryRouter {
	prompts := &mockPromptStore{}
	structured := NewStructuredQueryService(f.source, f.llm, prompts, false)
	consolidator := NewRetrievalConsolidator(f.index, f.llm, prompts, testRetrievalSettings())
	var extractor *FilterExtractor
	if extract {
		extractor = NewFilterExtractor(f.llm, prompts)
	}
	return NewQueryRouter(classifier, structured, consolidator, extractor, policy)
}

func TestQueryRouter_Ask_Structured(t *testing.T) {
	f := newRouterFixture("SELECT COUNT(*) AS n FROM sales")
	router := f.router(NewKeywordClassifier(), false, domain.FailureFallback)

	answer, err := router.Ask(context.Background(), domain.QueryRequest{Question: "  how many rows are in the table  "})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentStructured, answer.Intent)
	assert.Equal(t, "how many rows are in the table", answer.Question)
	assert.Equal(t, "how many rows are in the table → 7", answer.Response)
	assert.Equal(t, "SELECT COUNT(*) AS n FROM liquorsales", answer.Query)
	assert.False(t, answer.FellBack)
	// Exactly one path: no retrieval happened.
	assert.Zero(t, f.index.lastK)
	assert.Equal(t, 0, f.llm.callsFor("answer_stuff"))
}

func TestQueryRouter_Ask_Semantic(t *testing.T) {
	f := newRouterFixture("unused")
	router := f.router(NewKeywordClassifier(), false, domain.FailureFallback)

	answer, err := router.Ask(context.Background(), domain.QueryRequest{Question: "What's trending in whiskey sales this spring?"})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentSemantic, answer.Intent)
	assert.Equal(t, "semantic answer", answer.Response)
	assert.Equal(t, domain.StrategyStuff, answer.Strategy)
	assert.Equal(t, 3, answer.Documents)
	assert.Empty(t, f.source.executed)
	assert.Equal(t, 0, f.llm.callsFor("sql_generation"))
}

func TestQueryRouter_Ask_FallbackOnQueryFailure(t *testing.T) {
	f := newRouterFixture("SELECT * FROM customers")
	router := f.router(NewKeywordClassifier(), false, domain.FailureFallback)

	answer, err := router.Ask(context.Background(), domain.QueryRequest{Question: "count the customers"})

	require.NoError(t, err)
	assert.True(t, answer.FellBack)
	assert.Equal(t, domain.IntentSemantic, answer.Intent)
	assert.Equal(t, "SELECT * FROM customers", answer.Query)
	assert.Equal(t, "semantic answer", answer.Response)
}

func TestQueryRouter_Ask_ErrorPolicy(t *testing.T) {
	f := newRouterFixture("SELECT * FROM customers")
	router := f.router(NewKeywordClassifier(), false, domain.FailureError)

	_, err := router.Ask(context.Background(), domain.QueryRequest{Question: "count the customers"})

	var qerr *domain.QueryExecutionError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "SELECT * FROM customers", qerr.Query)
	assert.Zero(t, f.index.lastK)

	last, ok := router.LastExchange()
	require.True(t, ok)
	assert.Equal(t, "count the customers", last.Query)
	assert.Contains(t, last.Response, "query execution failed")
}

func TestQueryRouter_Ask_InvalidPolicyDefaultsToFallback(t *testing.T) {
	f := newRouterFixture("DELETE FROM liquorsales")
	router := f.router(NewKeywordClassifier(), false, domain.FailurePolicy("panic"))

	answer, err := router.Ask(context.Background(), domain.QueryRequest{Question: "count rows"})

	require.NoError(t, err)
	assert.True(t, answer.FellBack)
}

func TestQueryRouter_Ask_ClassifierErrorUsesRetrieval(t *testing.T) {
	f := newRouterFixture("unused")
	classifier := &fixedClassifier{intent: domain.IntentStructured, err: errors.New("boom")}
	router := f.router(classifier, false, domain.FailureFallback)

	answer, err := router.Ask(context.Background(), domain.QueryRequest{Question: "anything"})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentSemantic, answer.Intent)
	assert.Empty(t, f.source.executed)
}

func TestQueryRouter_Ask_GenerativeClassifierReusesQuery(t *testing.T) {
	f := newRouterFixture("SELECT COUNT(*) AS n FROM liquorsales")
	prompts := &mockPromptStore{}
	classifier := NewGenerativeClassifier(NewStructuredQueryService(f.source, f.llm, prompts, false))
	router := f.router(classifier, false, domain.FailureFallback)

	answer, err := router.Ask(context.Background(), domain.QueryRequest{Question: "how many sales lines"})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentStructured, answer.Intent)
	assert.Equal(t, 1, f.llm.callsFor("sql_generation"))
	assert.Len(t, f.source.executed, 1)
}

func TestQueryRouter_Ask_ExtractsFilters(t *testing.T) {
	f := newRouterFixture("unused")
	router := f.router(NewKeywordClassifier(), true, domain.FailureFallback)

	_, err := router.Ask(context.Background(), domain.QueryRequest{Question: "vodka in Ames"})

	require.NoError(t, err)
	assert.Equal(t, domain.MetadataFilter{"city": "Ames"}, f.index.lastFilter)
}

func TestQueryRouter_Ask_CallerFiltersWin(t *testing.T) {
	f := newRouterFixture("unused")
	router := f.router(NewKeywordClassifier(), true, domain.FailureFallback)
	filters := domain.MetadataFilter{"month": "2023-04"}

	_, err := router.Ask(context.Background(), domain.QueryRequest{Question: "vodka in Ames", Filters: filters})

	require.NoError(t, err)
	assert.Equal(t, filters, f.index.lastFilter)
	assert.Equal(t, 0, f.llm.callsFor("filter_extraction"))
}

func TestQueryRouter_Ask_InvalidInput(t *testing.T) {
	f := newRouterFixture("unused")
	classifier := &fixedClassifier{intent: domain.IntentSemantic}
	router := f.router(classifier, false, domain.FailureFallback)

	_, err := router.Ask(context.Background(), domain.QueryRequest{Question: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = router.Ask(context.Background(), domain.QueryRequest{Question: "q", Filters: domain.MetadataFilter{"bogus": "x"}})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	assert.Equal(t, 0, classifier.calls)
	_, ok := router.LastExchange()
	assert.False(t, ok)
}

func TestQueryRouter_LastExchange(t *testing.T) {
	f := newRouterFixture("unused")
	router := f.router(NewKeywordClassifier(), false, domain.FailureFallback)

	_, err := router.Ask(context.Background(), domain.QueryRequest{Question: "first"})
	require.NoError(t, err)
	_, err = router.Ask(context.Background(), domain.QueryRequest{Question: "second"})
	require.NoError(t, err)

	last, ok := router.LastExchange()
	require.True(t, ok)
	assert.Equal(t, "second", last.Query)
	assert.Equal(t, "semantic answer", last.Response)
	assert.False(t, last.At.IsZero())
}
