package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// thinkBlock matches reasoning traces some local models emit before answering.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// codeFence matches a markdown fence line such as ```sql.
var codeFence = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

// renderPrompt loads a template and substitutes {name} placeholders.
func renderPrompt(store driven.PromptStore, name string, vars map[string]string) (string, error) {
	if store == nil {
		return "", fmt.Errorf("prompt %q: prompt store not configured", name)
	}
	tmpl, err := store.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// generate renders a prompt and runs it through the LLM with
// deterministic settings, returning the cleaned response.
func generate(
	ctx context.Context,
	llm driven.LLMService,
	store driven.PromptStore,
	name string,
	vars map[string]string,
) (string, error) {
	if llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	prompt, err := renderPrompt(store, name, vars)
	if err != nil {
		return "", err
	}
	out, err := llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", name, err)
	}
	return stripThink(out), nil
}

// stripThink removes <think> blocks and surrounding whitespace.
func stripThink(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}
