package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

func TestStatusCmd_NoRunYet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.stats.stats = &domain.IndexStats{Table: "sales", Transactions: 1234567, Documents: 89012}

	out, err := runCommand(t, "", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Table:          sales")
	assert.Contains(t, out, "Transactions:   1,234,567")
	assert.Contains(t, out, "Documents:      89,012")
	assert.Contains(t, out, "No sync has run in this process")
}

func TestStatusCmd_WithLastReport(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	start := time.Now().Add(-2 * time.Hour)
	ts.index.status = domain.SyncStatus{
		LastReport: &domain.SyncReport{
			DocumentsSubmitted: 3000,
			FinalOffset:        16000,
			StartedAt:          start,
			FinishedAt:         start.Add(time.Minute),
		},
		LastError: "batch submission failed",
	}

	out, err := runCommand(t, "", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "Submitted:      3,000 documents")
	assert.Contains(t, out, "Final offset:   16,000")
	assert.Contains(t, out, "Last error:     batch submission failed")
}

func TestStatusCmd_Running(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.status = domain.SyncStatus{Running: true}

	out, err := runCommand(t, "", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "A sync is running")
}

func TestStatusCmd_StatsError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.stats.err = errBoom

	_, err := runCommand(t, "", "status")

	assert.ErrorIs(t, err, errBoom)
}
