package driven

import (
	"context"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// AggregateSource is the relational aggregate store.
// All methods are read-only.
type AggregateSource interface {
	// FetchGroups returns one page of aggregate groups ordered by
	// store, item, month and first source position.
	// An empty page means the source is exhausted.
	FetchGroups(ctx context.Context, limit, offset int) ([]domain.AggregateGroup, error)

	// DescribeSchema returns the columns of the aggregate table in order.
	DescribeSchema(ctx context.Context) ([]domain.Column, error)

	// ExecuteReadOnly runs a single query that must not modify data.
	ExecuteReadOnly(ctx context.Context, query string) (*domain.TabularResult, error)

	// TableName returns the canonical aggregate table name.
	TableName() string
}

// TransactionStore persists raw transaction rows.
type TransactionStore interface {
	// InsertTransactions stores rows, ignoring rows whose invoice line already exists.
	// Returns the number of rows inserted.
	InsertTransactions(ctx context.Context, rows []domain.TransactionRow) (int, error)

	// CountTransactions returns the number of stored rows.
	CountTransactions(ctx context.Context) (int, error)
}

// DatasetSource pages through the upstream sales dataset.
type DatasetSource interface {
	// FetchPage returns up to limit rows starting at offset.
	// An empty page means the dataset is exhausted.
	FetchPage(ctx context.Context, limit, offset int) ([]domain.TransactionRow, error)
}
