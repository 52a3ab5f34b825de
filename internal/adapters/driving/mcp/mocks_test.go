package mcp

import (
	"context"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer   *domain.Answer
	err      error
	last     domain.Exchange
	hasLast  bool
	received domain.QueryRequest
}

func (m *mockQueryService) Ask(_ context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	m.received = req
	return m.answer, m.err
}

func (m *mockQueryService) LastExchange() (domain.Exchange, bool) {
	return m.last, m.hasLast
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status domain.SyncStatus
}

func (m *mockIndexService) Sync(_ context.Context, _ domain.SyncOptions) (*domain.SyncReport, error) {
	return &domain.SyncReport{}, nil
}

func (m *mockIndexService) Status() domain.SyncStatus {
	return m.status
}

// mockStatsService is a mock implementation of driving.StatsService.
type mockStatsService struct {
	stats   *domain.IndexStats
	columns []domain.Column
	err     error
}

func (m *mockStatsService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockStatsService) Schema(_ context.Context) ([]domain.Column, error) {
	return m.columns, m.err
}
