package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/styles"
)

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(styles.DefaultStyles())

	require.NotNil(t, q)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.Equal(t, 50, q.Width())
}

func TestNewQuestionInput_NilStyles(t *testing.T) {
	q := NewQuestionInput(nil)
	assert.NotNil(t, q.styles)
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	q, _ = q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})

	assert.Equal(t, "hi", q.Value())
	assert.Contains(t, q.View(), "Ask:")
}

func TestQuestionInput_History(t *testing.T) {
	q := NewQuestionInput(nil)

	q.Submit("first")
	q.Submit("second")
	q.Submit("second")
	q.Submit("")

	assert.Equal(t, []string{"first", "second"}, q.History())
	assert.Empty(t, q.Value())

	q.Previous()
	assert.Equal(t, "second", q.Value())
	q.Previous()
	assert.Equal(t, "first", q.Value())
	q.Previous()
	assert.Equal(t, "first", q.Value())

	q.Next()
	assert.Equal(t, "second", q.Value())
	q.Next()
	assert.Empty(t, q.Value())
	q.Next()
	assert.Empty(t, q.Value())
}

func TestQuestionInput_FocusBlur(t *testing.T) {
	q := NewQuestionInput(nil)

	q.Blur()
	assert.False(t, q.Focused())

	q.Focus()
	assert.True(t, q.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 90, q.textinput.Width)

	q.SetWidth(10)
	assert.Equal(t, 20, q.textinput.Width)
}

func TestQuestionInput_Reset(t *testing.T) {
	q := NewQuestionInput(nil)
	q.Submit("first")
	q.Previous()

	q.Reset()

	assert.Empty(t, q.Value())
	q.Previous()
	assert.Equal(t, "first", q.Value())
}
