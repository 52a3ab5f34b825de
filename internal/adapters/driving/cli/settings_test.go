package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-1234567890abcdef",
	}

	out, err := runCommand(t, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Classifier: keyword")
	assert.Contains(t, out, "Stuff threshold: 50")
	assert.Contains(t, out, "Max rows: unbounded")
	assert.Contains(t, out, "Source: https://data.iowa.gov/resource/cc6f-sgik")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_ValidationWarning(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New(`LLM provider "openai" is not configured`)

	out, err := runCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, `Warning: LLM provider "openai" is not configured`)
}

func TestSettingsSet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "", "settings", "set", "router.classifier", "generative")

	require.NoError(t, err)
	assert.Equal(t, "generative", ts.settings.values["router.classifier"])
	assert.Contains(t, out, "router.classifier = generative")
}

func TestSettingsSet_SecretFromStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "sk-secret-value-1234\n", "settings", "set", "llm.api_key")

	require.NoError(t, err)
	assert.Equal(t, "sk-secret-value-1234", ts.settings.values["llm.api_key"])
	assert.Contains(t, out, "llm.api_key = sk-s...1234")
	assert.NotContains(t, out, "sk-secret-value-1234")
}

func TestSettingsSet_MissingValue(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "", "settings", "set", "sync.page_size")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSet_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = domain.ErrInvalidInput

	_, err := runCommand(t, "", "settings", "set", "sync.page_size", "abc")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeys(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "", "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "llm.api_key\nrouter.classifier\nsync.page_size\n", out)
}

func TestSettingsCheck(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	pinged := false
	ts.services.CheckProviders = func() error {
		pinged = true
		return nil
	}

	out, err := runCommand(t, "", "settings", "check")

	require.NoError(t, err)
	assert.True(t, pinged)
	assert.Contains(t, out, "Settings: OK")
	assert.Contains(t, out, "Providers: OK")
}

func TestSettingsCheck_ProviderFailure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.services.CheckProviders = func() error { return domain.ErrLLMUnavailable }

	out, err := runCommand(t, "", "settings", "check")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, out, "Providers: FAILED")
}

func TestSettingsCheck_InvalidSettings(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errBoom

	out, err := runCommand(t, "", "settings", "check")

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, out, "Settings: boom")
}

func TestSettingsLLM_Interactive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// Choice 3 is Anthropic; the default model is accepted.
	out, err := runCommand(t, "3\n\nsk-ant-0123456789\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, "anthropic", ts.settings.values["llm.provider"])
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], ts.settings.values["llm.model"])
	assert.Equal(t, "sk-ant-0123456789", ts.settings.values["llm.api_key"])
	assert.Contains(t, out, "LLM provider configured: Anthropic (cloud)")
}

func TestSettingsEmbedding_LocalProviderSkipsKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "1\nmxbai-embed-large\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, "ollama", ts.settings.values["embedding.provider"])
	assert.Equal(t, "mxbai-embed-large", ts.settings.values["embedding.model"])
	assert.Empty(t, ts.settings.values["embedding.api_key"])
	assert.NotContains(t, out, "Enter API key")
}

func TestSettingsLLM_MissingAPIKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "2\n\n\n", "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
	assert.Empty(t, ts.settings.values)
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("llm.api_key"))
	assert.True(t, isSecretKey("embedding.api_key"))
	assert.True(t, isSecretKey("dataset.app_token"))
	assert.False(t, isSecretKey("llm.model"))
}
