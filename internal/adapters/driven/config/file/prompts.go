package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the file extension of prompt templates.
const promptExt = ".txt"

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// Initialisation is lazy: the directory and default files are written on
// the first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSQLGeneration: `You are working with a SQLite database. The table is called '{table}' and has these columns:
{schema}

Each row is one invoice line of an Iowa liquor sale. sale_dollars, sale_liters and sale_gallons are decimals, sale_bottles is an integer, date is YYYY-MM-DD.

Question: {question}

If the question can be answered with SQL, return one SELECT query against the '{table}' table.
Output only the SQL. No explanations, no markdown.`,

	driven.PromptSQLSummary: `Here are the results of a database query:

{results}

Using only these results, answer the question in one or two plain sentences.

Question: {question}
Answer:`,

	driven.PromptAnswerStuff: `Use the following monthly sales summaries to answer the question.
If the summaries do not contain the answer, say so.

{context}

Question: {question}
Answer:`,

	driven.PromptMapSummary: `The following monthly sales summaries are part of a larger set.
Extract everything relevant to the question, keeping store names, products, months and figures.

{context}

Question: {question}
Relevant facts:`,

	driven.PromptReduceCombine: `The following notes were extracted from monthly sales summaries.
Combine them into a single answer to the question. Add up figures where the question asks for totals.

{summaries}

Question: {question}
Answer:`,

	driven.PromptFilterExtraction: `Given the following user question:

"{question}"

Extract metadata filters as a JSON object. Allowed keys: {keys}.
Use YYYY-MM for month. Omit any key the question does not mention.
Output only the JSON object.`,
}

// DefaultPrompt returns the embedded default for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// PromptNames lists every built-in prompt name, sorted.
func PromptNames() []string {
	names := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.justask/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".justask", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// Falls back to the embedded default if the file is missing or unreadable.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// No lock held during I/O
	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = fmt.Errorf("file is empty")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so a concurrent load is not overwritten
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Existing files are user edits and are never overwritten
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+promptExt)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# justask prompts

Each file is a template sent to the configured LLM.

## Files

- ` + "`sql_generation.txt`" + ` - turns a question into one SELECT query
- ` + "`sql_summary.txt`" + ` - rephrases query results as prose (structured.summarise)
- ` + "`answer_stuff.txt`" + ` - answers from all retrieved monthly summaries at once
- ` + "`map_summary.txt`" + ` - condenses one batch of summaries when there are many
- ` + "`reduce_combine.txt`" + ` - merges the condensed batches into an answer
- ` + "`filter_extraction.txt`" + ` - extracts metadata filters (router.extract_filters)

## Placeholders

Templates use named placeholders in braces: {question}, {table}, {schema},
{results}, {context}, {summaries} and {keys}. Keep the ones a template
already has. Delete a file to restore its default.

Edits are picked up while ` + "`justask serve`" + ` and ` + "`justask tui`" + ` are running.
`
	return os.WriteFile(path, []byte(content), 0600)
}
