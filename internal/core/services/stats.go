package services

import (
	"context"
	"fmt"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// StatsService reads counts from the aggregate store and the index.
type StatsService struct {
	source       driven.AggregateSource
	transactions driven.TransactionStore
	index        driven.SemanticIndex
}

// NewStatsService creates a new stats service. transactions may be nil,
// in which case the transaction count is reported as zero.
func NewStatsService(
	source driven.AggregateSource,
	transactions driven.TransactionStore,
	index driven.SemanticIndex,
) *StatsService {
	return &StatsService{source: source, transactions: transactions, index: index}
}

// Stats counts stored transactions and indexed documents.
func (s *StatsService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	stats := &domain.IndexStats{Table: s.source.TableName()}

	if s.transactions != nil {
		n, err := s.transactions.CountTransactions(ctx)
		if err != nil {
			return nil, fmt.Errorf("count transactions: %w", err)
		}
		stats.Transactions = n
	}

	n, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	stats.Documents = n

	return stats, nil
}

// Schema returns the columns of the aggregate table.
func (s *StatsService) Schema(ctx context.Context) ([]domain.Column, error) {
	return s.source.DescribeSchema(ctx)
}
