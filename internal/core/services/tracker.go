package services

import (
	"context"
	"fmt"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// IdentityTracker holds the record ids known to be present in the index.
// A tracker belongs to a single synchronisation run and is not safe for
// concurrent use.
type IdentityTracker struct {
	index driven.SemanticIndex
	ids   map[string]struct{}
}

// NewIdentityTracker creates an empty tracker over index.
func NewIdentityTracker(index driven.SemanticIndex) *IdentityTracker {
	return &IdentityTracker{
		index: index,
		ids:   make(map[string]struct{}),
	}
}

// Load replaces the tracked set with a single bulk scan of the index.
// A failed scan returns ErrIndexUnavailable and leaves the set untouched.
func (t *IdentityTracker) Load(ctx context.Context) error {
	ids, err := t.index.RecordIDs(ctx)
	if err != nil {
		return fmt.Errorf("%w: scan record ids: %w", domain.ErrIndexUnavailable, err)
	}

	loaded := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			loaded[id] = struct{}{}
		}
	}
	t.ids = loaded
	return nil
}

// Contains reports whether id is already indexed.
func (t *IdentityTracker) Contains(id string) bool {
	_, ok := t.ids[id]
	return ok
}

// Record marks id as indexed. Only call it once the document is persisted.
func (t *IdentityTracker) Record(id string) {
	t.ids[id] = struct{}{}
}

// Len returns the number of tracked ids.
func (t *IdentityTracker) Len() int {
	return len(t.ids)
}
