package driving

import (
	"context"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// QueryService answers natural-language questions.
// It is safe for concurrent use.
type QueryService interface {
	// Ask routes a question to exactly one answering path.
	Ask(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)

	// LastExchange returns the most recent question and response.
	LastExchange() (domain.Exchange, bool)
}

// QueryClassifier decides how a question should be answered.
type QueryClassifier interface {
	// Classify returns IntentStructured or IntentSemantic.
	// Implementations fall back to IntentSemantic when unsure.
	Classify(ctx context.Context, question string) (domain.Intent, error)
}
