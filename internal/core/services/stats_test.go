package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

func TestStatsService_Stats(t *testing.T) {
	index := newMockSemanticIndex()
	require.NoError(t, index.AddDocuments(context.Background(), []domain.Document{{RecordID: "a"}, {RecordID: "b"}}))

	store := newMockTransactionStore()
	_, err := store.InsertTransactions(context.Background(), []domain.TransactionRow{
		{InvoiceLineNo: "INV-1"}, {InvoiceLineNo: "INV-2"}, {InvoiceLineNo: "INV-3"},
	})
	require.NoError(t, err)

	stats, err := NewStatsService(&mockAggregateSource{}, store, index).Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &domain.IndexStats{Table: "liquorsales", Transactions: 3, Documents: 2}, stats)
}

func TestStatsService_Stats_NoTransactionStore(t *testing.T) {
	stats, err := NewStatsService(&mockAggregateSource{}, nil, newMockSemanticIndex()).Stats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.Transactions)
}

func TestStatsService_Stats_IndexError(t *testing.T) {
	index := newMockSemanticIndex()
	index.countErr = errors.New("connection refused")

	_, err := NewStatsService(&mockAggregateSource{}, nil, index).Stats(context.Background())

	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestStatsService_Schema(t *testing.T) {
	columns, err := NewStatsService(&mockAggregateSource{}, nil, newMockSemanticIndex()).Schema(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "store", columns[0].Name)
}
