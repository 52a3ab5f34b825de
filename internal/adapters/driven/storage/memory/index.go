package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SemanticIndex = (*Index)(nil)

type entry struct {
	doc    domain.Document
	vector []float32
}

// Index is an in-process driven.SemanticIndex searched by exhaustive
// cosine similarity.
type Index struct {
	embedder driven.EmbeddingService

	mu      sync.RWMutex
	entries map[string]entry
}

// NewIndex creates an empty index that embeds text with embedder.
func NewIndex(embedder driven.EmbeddingService) *Index {
	return &Index{
		embedder: embedder,
		entries:  make(map[string]entry),
	}
}

// AddDocuments embeds the batch before taking the lock, so a failed
// embedding leaves the index untouched.
func (i *Index) AddDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if i.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(docs))
	for n := range docs {
		texts[n] = docs[n].Summary
	}
	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: got %d embeddings for %d documents", domain.ErrEmbeddingUnavailable, len(vectors), len(docs))
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for n := range docs {
		i.entries[docs[n].RecordID] = entry{doc: docs[n], vector: vectors[n]}
	}
	return nil
}

// Search returns up to k matching documents, best first. Ties are broken
// by record id.
func (i *Index) Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if i.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVec, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	i.mu.RLock()
	results := make([]domain.ScoredDocument, 0, len(i.entries))
	for _, e := range i.entries {
		if !filter.Matches(e.doc.Metadata) {
			continue
		}
		results = append(results, domain.ScoredDocument{Document: e.doc, Score: domain.CosineSimilarity(queryVec, e.vector)})
	}
	i.mu.RUnlock()

	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].Document.RecordID < results[b].Document.RecordID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// RecordIDs returns every stored record id in sorted order.
func (i *Index) RecordIDs(_ context.Context) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := make([]string, 0, len(i.entries))
	for id := range i.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of stored documents.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries), nil
}

// Close drops every document.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = make(map[string]entry)
	return nil
}
