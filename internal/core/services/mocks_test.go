package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// --- Shared mock implementations for service tests ---

// mockAggregateSource implements driven.AggregateSource over a fixed slice.
type mockAggregateSource struct {
	mu        sync.Mutex
	groups    []domain.AggregateGroup
	fetchErr  error
	errOffset int
	fetches   []int

	schema    []domain.Column
	schemaErr error
	execFn    func(query string) (*domain.TabularResult, error)
	executed  []string
}

func (m *mockAggregateSource) FetchGroups(_ context.Context, limit, offset int) ([]domain.AggregateGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, offset)
	if m.fetchErr != nil && offset >= m.errOffset {
		return nil, m.fetchErr
	}
	if offset >= len(m.groups) {
		return nil, nil
	}
	end := min(offset+limit, len(m.groups))
	return m.groups[offset:end], nil
}

func (m *mockAggregateSource) DescribeSchema(_ context.Context) ([]domain.Column, error) {
	if m.schemaErr != nil {
		return nil, m.schemaErr
	}
	if m.schema == nil {
		return []domain.Column{{Name: "store", Type: "INTEGER"}, {Name: "sale_bottles", Type: "INTEGER"}}, nil
	}
	return m.schema, nil
}

func (m *mockAggregateSource) ExecuteReadOnly(_ context.Context, query string) (*domain.TabularResult, error) {
	m.mu.Lock()
	m.executed = append(m.executed, query)
	m.mu.Unlock()
	if m.execFn == nil {
		return &domain.TabularResult{}, nil
	}
	return m.execFn(query)
}

func (m *mockAggregateSource) TableName() string { return "liquorsales" }

func (m *mockAggregateSource) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetches)
}

// mockSemanticIndex implements driven.SemanticIndex in memory.
type mockSemanticIndex struct {
	mu       sync.Mutex
	docs     map[string]domain.Document
	batches  [][]domain.Document
	addErrFn func(batch []domain.Document) error
	idsErr   error
	countErr error

	results    []domain.ScoredDocument
	searchErr  error
	lastK      int
	lastFilter domain.MetadataFilter
}

func newMockSemanticIndex() *mockSemanticIndex {
	return &mockSemanticIndex{docs: make(map[string]domain.Document)}
}

func (m *mockSemanticIndex) AddDocuments(_ context.Context, docs []domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, docs)
	if m.addErrFn != nil {
		if err := m.addErrFn(docs); err != nil {
			return err
		}
	}
	for _, d := range docs {
		m.docs[d.RecordID] = d
	}
	return nil
}

func (m *mockSemanticIndex) Search(
	_ context.Context,
	_ string,
	k int,
	filter domain.MetadataFilter,
) ([]domain.ScoredDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastK = k
	m.lastFilter = filter
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.results) > k {
		return m.results[:k], nil
	}
	return m.results, nil
}

func (m *mockSemanticIndex) RecordIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idsErr != nil {
		return nil, m.idsErr
	}
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockSemanticIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.docs), nil
}

func (m *mockSemanticIndex) Close() error { return nil }

func (m *mockSemanticIndex) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// mockLLMService implements driven.LLMService. respond receives the
// rendered prompt; prompts start with the template name in brackets.
type mockLLMService struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.respond == nil {
		return "ok", nil
	}
	return m.respond(prompt)
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// callsFor counts prompts rendered from the named template.
func (m *mockLLMService) callsFor(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.prompts {
		if strings.HasPrefix(p, "["+name+"]") {
			n++
		}
	}
	return n
}

// mockPromptStore implements driven.PromptStore with tagged templates.
type mockPromptStore struct {
	reloads int
}

var mockTemplates = map[string]string{
	driven.PromptSQLGeneration:    "[sql_generation]\ntable={table}\n{schema}\nQ: {question}",
	driven.PromptSQLSummary:       "[sql_summary]\n{results}\nQ: {question}",
	driven.PromptAnswerStuff:      "[answer_stuff]\n{context}\nQ: {question}",
	driven.PromptMapSummary:       "[map_summary]\n{context}\nQ: {question}",
	driven.PromptReduceCombine:    "[reduce_combine]\n{summaries}\nQ: {question}",
	driven.PromptFilterExtraction: "[filter_extraction]\nkeys={keys}\nQ: {question}",
}

func (m *mockPromptStore) Load(name string) (string, error) {
	tmpl, ok := mockTemplates[name]
	if !ok {
		return "", fmt.Errorf("%w: prompt %s", domain.ErrNotFound, name)
	}
	return tmpl, nil
}

func (m *mockPromptStore) Reload() { m.reloads++ }

// Ensure mocks implement interfaces
var _ driven.AggregateSource = (*mockAggregateSource)(nil)
var _ driven.SemanticIndex = (*mockSemanticIndex)(nil)
var _ driven.LLMService = (*mockLLMService)(nil)
var _ driven.PromptStore = (*mockPromptStore)(nil)

var errMockUnavailable = errors.New("service unavailable")

// testGroup builds a distinct aggregate group for store n.
func testGroup(n int) domain.AggregateGroup {
	return domain.AggregateGroup{
		GroupKey: domain.GroupKey{
			StoreName:       fmt.Sprintf("Store %03d", n),
			ItemDescription: "Black Velvet",
			CategoryName:    "Canadian Whiskies",
			Month:           time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
		City:              "Ames",
		County:            "Story",
		ZipCode:           "50010",
		FirstPosition:     int64(n),
		Vendors:           []string{"Sazerac Company"},
		TotalOrders:       1,
		TotalBottles:      12,
		TotalSales:        decimal.RequireFromString("113.88"),
		TotalLiters:       decimal.RequireFromString("21"),
		AvgBottleVolumeML: decimal.NewFromInt(1750),
		CommonPack:        6,
	}
}

func testGroups(n int) []domain.AggregateGroup {
	groups := make([]domain.AggregateGroup, n)
	for i := range groups {
		groups[i] = testGroup(i)
	}
	return groups
}

func scoredDocs(n int) []domain.ScoredDocument {
	docs := make([]domain.ScoredDocument, n)
	for i := range docs {
		docs[i] = domain.ScoredDocument{
			Document: domain.Document{
				RecordID: fmt.Sprintf("doc-%d", i),
				Summary:  fmt.Sprintf("summary %d", i),
			},
			Score: 1 - float64(i)/float64(n+1),
		}
	}
	return docs
}
