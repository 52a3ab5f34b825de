package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/adapters/driving/httpapi"
)

func TestServeCmd_HasAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
	assert.Contains(t, serveCmd.Long, "POST /query")
}

func TestServeCmd_ShutsDownWithContext(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runCommandContext(t, ctx, "", "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, out, "justask API listening on 127.0.0.1:0")
	assert.True(t, ts.watcher.started)
	assert.True(t, ts.watcher.closed)
	assert.True(t, ts.scheduler.wasStopped())
}

func TestServeCmd_DefaultsToSettingsAddr(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runCommandContext(t, ctx, "", "serve")

	require.NoError(t, err)
	assert.Contains(t, out, "listening on 127.0.0.1:0")
}

func TestServeCmd_RequiresQueryService(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.services.Query = nil

	_, err := runCommand(t, "", "serve")

	assert.ErrorIs(t, err, httpapi.ErrMissingQueryService)
	assert.False(t, ts.watcher.started)
}
