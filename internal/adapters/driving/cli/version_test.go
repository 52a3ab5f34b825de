package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_PrintsVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	tests := []struct {
		name string
		set  string
		want string
	}{
		{"release build", "1.4.2", "justask version 1.4.2"},
		{"empty keeps current", "", "justask version dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version = "dev"
			SetVersion(tt.set)

			out, err := runCommand(t, "", "version")

			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestVersionCmd_NeedsNoServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil)
	SetBuilder(nil)

	_, err := runCommand(t, "", "version")

	assert.NoError(t, err)
}
