package services

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/logger"
)

var (
	_ driving.QueryClassifier = (*KeywordClassifier)(nil)
	_ driving.QueryClassifier = (*GenerativeClassifier)(nil)
)

// structuredVocabulary are words that suggest a question about the table itself.
var structuredVocabulary = []string{
	"table", "tables", "database", "row", "rows",
	"column", "columns", "select", "count", "query",
}

// KeywordClassifier routes questions containing structured vocabulary to
// the structured path. It is a cheap heuristic: misses fall through to
// semantic retrieval and false hits are caught by query validation.
type KeywordClassifier struct {
	vocabulary map[string]bool
}

// NewKeywordClassifier creates a classifier over the default vocabulary.
func NewKeywordClassifier() *KeywordClassifier {
	return NewKeywordClassifierWithVocabulary(structuredVocabulary)
}

// NewKeywordClassifierWithVocabulary creates a classifier over words.
func NewKeywordClassifierWithVocabulary(words []string) *KeywordClassifier {
	vocab := make(map[string]bool, len(words))
	for _, w := range words {
		vocab[strings.ToLower(w)] = true
	}
	return &KeywordClassifier{vocabulary: vocab}
}

// Classify matches whole words case-insensitively, so "county" does not
// match "count".
func (c *KeywordClassifier) Classify(_ context.Context, question string) (domain.Intent, error) {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, w := range words {
		if c.vocabulary[w] {
			return domain.IntentStructured, nil
		}
	}
	return domain.IntentSemantic, nil
}

// GenerativeClassifier defers the decision to query generation: a response
// that starts with a read-only query verb is structured, anything else is
// semantic. Generated queries are held until the router takes them so the
// question is not generated twice.
type GenerativeClassifier struct {
	structured *StructuredQueryService

	mu      sync.Mutex
	pending map[string]string
}

// NewGenerativeClassifier creates a classifier backed by structured.
func NewGenerativeClassifier(structured *StructuredQueryService) *GenerativeClassifier {
	return &GenerativeClassifier{
		structured: structured,
		pending:    make(map[string]string),
	}
}

// Classify generates a candidate query for question.
// Generation failures classify as semantic.
func (c *GenerativeClassifier) Classify(ctx context.Context, question string) (domain.Intent, error) {
	candidate, err := c.structured.Generate(ctx, question)
	if err != nil {
		logger.Warn("Query generation failed, using retrieval: %v", err)
		return domain.IntentSemantic, nil
	}
	if !isReadOnly(candidate) {
		logger.Debug("Generated text is not a query, using retrieval")
		return domain.IntentSemantic, nil
	}

	c.mu.Lock()
	c.pending[question] = candidate
	c.mu.Unlock()
	return domain.IntentStructured, nil
}

// TakeQuery returns and forgets the query generated for question.
func (c *GenerativeClassifier) TakeQuery(question string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.pending[question]
	delete(c.pending, question)
	return q, ok
}
