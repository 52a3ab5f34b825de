package driven

// PromptStore provides access to LLM prompt templates.
// Templates use named placeholders such as {question} and {context}.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names fall back to the built-in default when one exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSQLGeneration turns a question into one read-only query.
	// Placeholders: {table}, {schema}, {question}.
	PromptSQLGeneration = "sql_generation"

	// PromptSQLSummary rephrases formatted query results as prose.
	// Placeholders: {results}, {question}.
	PromptSQLSummary = "sql_summary"

	// PromptAnswerStuff answers from all retrieved summaries in one call.
	// Placeholders: {context}, {question}.
	PromptAnswerStuff = "answer_stuff"

	// PromptMapSummary condenses one sub-batch of retrieved summaries.
	// Placeholders: {context}, {question}.
	PromptMapSummary = "map_summary"

	// PromptReduceCombine merges the sub-batch summaries into an answer.
	// Placeholders: {summaries}, {question}.
	PromptReduceCombine = "reduce_combine"

	// PromptFilterExtraction asks for a JSON metadata filter.
	// Placeholders: {keys}, {question}.
	PromptFilterExtraction = "filter_extraction"
)
