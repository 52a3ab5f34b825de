package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

func TestRenderPrompt(t *testing.T) {
	out, err := renderPrompt(&mockPromptStore{}, driven.PromptAnswerStuff, map[string]string{
		"context":  "a {question} literal",
		"question": "why?",
	})

	require.NoError(t, err)
	// Substituted values are not re-expanded.
	assert.Equal(t, "[answer_stuff]\na {question} literal\nQ: why?", out)
}

func TestRenderPrompt_Errors(t *testing.T) {
	_, err := renderPrompt(nil, driven.PromptAnswerStuff, nil)
	assert.Error(t, err)

	_, err = renderPrompt(&mockPromptStore{}, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerate_NoLLM(t *testing.T) {
	_, err := generate(context.Background(), nil, &mockPromptStore{}, driven.PromptAnswerStuff, nil)

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestStripThink(t *testing.T) {
	assert.Equal(t, "answer", stripThink("<think>\nstep one\nstep two\n</think>\n\nanswer  "))
	assert.Equal(t, "a  b", stripThink("a <think>x</think> b"))
	assert.Equal(t, "plain", stripThink("plain"))
}
