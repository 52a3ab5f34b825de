package domain

import "time"

// Intent is the routing decision for a question.
type Intent string

const (
	// IntentStructured routes a question to generated structured queries.
	IntentStructured Intent = "structured"

	// IntentSemantic routes a question to similarity search and consolidation.
	IntentSemantic Intent = "semantic"
)

// Strategy is the consolidation algorithm used for retrieved documents.
type Strategy string

const (
	// StrategyNone means no documents were consolidated.
	StrategyNone Strategy = ""

	// StrategyStuff concatenates all documents into one generation call.
	StrategyStuff Strategy = "stuff"

	// StrategyMapReduce summarises sub-batches then combines the summaries.
	StrategyMapReduce Strategy = "map_reduce"
)

// QueryRequest is one question submitted to the router.
type QueryRequest struct {
	Question string
	Filters  MetadataFilter
}

// Answer is the router's response to one question.
type Answer struct {
	Question string
	Response string
	Intent   Intent

	// Query is the structured query that was executed or attempted.
	Query string

	// Rows is the number of rows returned by the structured query.
	Rows int

	// Strategy is set for semantic answers.
	Strategy Strategy

	// Documents is the number of documents retrieved for semantic answers.
	Documents int

	// FellBack is true when a failed structured query was rerouted to retrieval.
	FellBack bool

	Duration time.Duration
}

// Exchange is the most recent question and response seen by the router.
type Exchange struct {
	Query    string
	Response string
	At       time.Time
}

// Column describes one column of the aggregate store.
type Column struct {
	Name string
	Type string
}

// TabularResult is the output of a read-only structured query.
type TabularResult struct {
	Columns []string
	Rows    [][]any
}
