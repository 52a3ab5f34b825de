package status

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/messages"
	"github.com/just-ask-ai/justask/internal/core/domain"
)

type mockIndexService struct {
	status domain.SyncStatus
}

func (m *mockIndexService) Sync(_ context.Context, _ domain.SyncOptions) (*domain.SyncReport, error) {
	return &domain.SyncReport{}, nil
}

func (m *mockIndexService) Status() domain.SyncStatus {
	return m.status
}

type mockStatsService struct {
	stats *domain.IndexStats
	err   error
}

func (m *mockStatsService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockStatsService) Schema(_ context.Context) ([]domain.Column, error) {
	return nil, nil
}

func TestView_LoadsAndRenders(t *testing.T) {
	finished := time.Now().Add(-time.Hour)
	index := &mockIndexService{status: domain.SyncStatus{
		LastError: "1 batch failed",
		LastReport: &domain.SyncReport{
			RunID:              "run-1",
			StartedAt:          finished.Add(-90 * time.Second),
			FinishedAt:         finished,
			PagesFetched:       4,
			DocumentsSubmitted: 12000,
			DocumentsSkipped:   500,
			BatchesSubmitted:   6,
			BatchesFailed:      1,
			FinalOffset:        64000,
		},
	}}
	stats := &mockStatsService{stats: &domain.IndexStats{Table: "liquorsales", Transactions: 1234567, Documents: 12500}}

	v := NewView(nil, nil, index, stats)
	v.SetDimensions(100, 30)

	cmd := v.Init()
	assert.Contains(t, v.View(), "Loading...")

	require.NotNil(t, cmd)
	v.Update(cmd())

	out := v.View()
	assert.Contains(t, out, "liquorsales")
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "12,500")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "64,000")
	assert.Contains(t, out, "1 of 6 batches failed")
	assert.Contains(t, out, "1 batch failed")
	assert.NoError(t, v.Err())
}

func TestView_NoServices(t *testing.T) {
	v := NewView(nil, nil, nil, nil)
	v.SetDimensions(80, 24)

	v.Update(v.Init()())

	out := v.View()
	assert.Contains(t, out, "not available")
	assert.Contains(t, out, "never run")
}

func TestView_StatsError(t *testing.T) {
	v := NewView(nil, nil, nil, &mockStatsService{err: domain.ErrIndexUnavailable})
	v.SetDimensions(80, 24)

	v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), domain.ErrIndexUnavailable)
	assert.Contains(t, v.View(), "Error:")
}

func TestView_Running(t *testing.T) {
	v := NewView(nil, nil, &mockIndexService{status: domain.SyncStatus{Running: true}}, nil)
	v.SetDimensions(80, 24)

	v.Update(v.Init()())

	assert.Contains(t, v.View(), "running")
}

func TestView_Keys(t *testing.T) {
	v := NewView(nil, nil, nil, nil)
	v.SetDimensions(80, 24)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	_, ok := cmd().(messages.StatusLoaded)
	assert.True(t, ok)
}
