package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, theme.Primary)
	assert.NotEmpty(t, theme.Secondary)
	assert.NotEmpty(t, theme.Error)
	assert.NotEqual(t, theme.Primary, theme.Secondary)
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestNewStyles_CustomTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Primary = "#FFFFFF"

	s := NewStyles(theme)

	assert.Equal(t, theme, s.Theme())
	assert.Equal(t, theme.Primary, s.Title.GetForeground())
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Question.Render("how many rows"), "how many rows")
	assert.Contains(t, s.Answer.Render("count: 3"), "count: 3")
	assert.Contains(t, s.Query.Render("SELECT 1"), "SELECT 1")
	assert.Contains(t, s.Error.Render("boom"), "boom")
}
