package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

func TestImportCmd_HasLimitFlag(t *testing.T) {
	flag := importCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestImportCmd_WithLimit(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.importer.inserted = 1500

	out, err := runCommand(t, "", "import", "--limit", "2000")

	require.NoError(t, err)
	assert.Equal(t, 2000, ts.importer.lastLimit)
	assert.Contains(t, out, "Importing up to 2,000 rows")
	assert.Contains(t, out, "Rows inserted: 1,500")
	assert.Contains(t, out, "justask sync")
}

func TestImportCmd_FullDataset(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "", "import")

	require.NoError(t, err)
	assert.Equal(t, 0, ts.importer.lastLimit)
	assert.Contains(t, out, "Importing the full dataset")
}

func TestImportCmd_NegativeLimit(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "", "import", "-n", "-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImportCmd_ReportsPartialProgressOnError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.importer.inserted = 250
	ts.importer.err = errBoom

	out, err := runCommand(t, "", "import", "--limit", "1000")

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, out, "Rows inserted: 250")
	assert.NotContains(t, out, "Import complete")
}

func TestImportCmd_ServiceNotAvailable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.services.Import = nil

	_, err := runCommand(t, "", "import")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "import service not available")
}
