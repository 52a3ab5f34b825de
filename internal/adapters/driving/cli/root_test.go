package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "justask", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "data-dir", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"ask", "sync", "import", "serve", "mcp", "schedule", "settings", "status", "tui", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestLoadServices_NotConfigured(t *testing.T) {
	oldServices, oldBuilder := services, builder
	services, builder = nil, nil
	defer func() { services, builder = oldServices, oldBuilder }()

	_, err := runCommand(t, "", "status")

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadServices_BuildsOnce(t *testing.T) {
	oldServices, oldBuilder := services, builder
	defer func() { services, builder = oldServices, oldBuilder }()
	services = nil

	calls := 0
	var got BuildOptions
	SetBuilder(func(_ context.Context, opts BuildOptions) (*Services, error) {
		calls++
		got = opts
		return &Services{Stats: &mockStatsService{stats: nil}}, nil
	})

	first, err := loadServices(rootCmd)
	require.NoError(t, err)
	second, err := loadServices(rootCmd)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.False(t, got.Ephemeral)
}

func TestLoadServices_BuilderError(t *testing.T) {
	oldServices, oldBuilder := services, builder
	defer func() { services, builder = oldServices, oldBuilder }()
	services = nil

	SetBuilder(func(context.Context, BuildOptions) (*Services, error) {
		return nil, errBoom
	})

	_, err := loadServices(rootCmd)

	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, services)
}

func TestBuildOptions_DataDirFromEnv(t *testing.T) {
	oldDir := dataDir
	defer func() { dataDir = oldDir }()

	t.Setenv(dataDirEnv, "/tmp/justask-env")
	dataDir = ""
	assert.Equal(t, "/tmp/justask-env", buildOptions().DataDir)

	dataDir = "/tmp/justask-flag"
	assert.Equal(t, "/tmp/justask-flag", buildOptions().DataDir)
}

func TestCloseServices(t *testing.T) {
	oldServices := services
	defer func() { services = oldServices }()

	closed := false
	services = &Services{Close: func() error {
		closed = true
		return nil
	}}

	require.NoError(t, closeServices())
	assert.True(t, closed)
	assert.Nil(t, services)

	// Nothing installed is not an error.
	assert.NoError(t, closeServices())
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}
