package driving

import (
	"context"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// IndexService keeps the semantic index in step with the aggregate store.
type IndexService interface {
	// Sync runs one incremental synchronisation. The report is returned even
	// when err is non-nil; err joins every batch failure of the run.
	Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncReport, error)

	// Status returns the state of the current or most recent run.
	Status() domain.SyncStatus
}

// ImportService loads raw transaction rows from the upstream dataset.
type ImportService interface {
	// Import pages through the dataset from the number of rows already
	// stored until it is exhausted or limit rows have been read. A zero
	// limit means no limit. Returns rows inserted.
	Import(ctx context.Context, limit int) (int, error)
}

// StatsService reports what the stores currently hold.
type StatsService interface {
	// Stats counts stored transactions and indexed documents.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// Schema returns the columns of the aggregate table.
	Schema(ctx context.Context) ([]domain.Column, error)
}
