package driven

import (
	"context"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// SemanticIndex stores documents and answers similarity searches.
// Adapters own embedding: callers pass text, never vectors.
type SemanticIndex interface {
	// AddDocuments embeds and stores a batch. The batch is atomic from the
	// caller's perspective: on error none of it may be treated as indexed.
	AddDocuments(ctx context.Context, docs []domain.Document) error

	// Search returns up to k documents most similar to query, best first,
	// restricted to documents matching filter. A nil filter matches all.
	Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.ScoredDocument, error)

	// RecordIDs returns the record id of every stored document.
	// It reads metadata only and is called once per synchronisation run.
	RecordIDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
