package driving

import (
	"context"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

// AskService answers natural-language questions from the indexed
// knowledge base.
type AskService interface {
	// Ask embeds the question, retrieves the most similar chunks, and
	// generates a grounded answer in the routed language.
	// Returns domain.ErrNoRelevantContext when no chunk clears the
	// similarity threshold.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)

	// Retrieve runs only the retrieval stage: embed the question and
	// return the top matching chunks without calling the LLM.
	Retrieve(ctx context.Context, question string, opts domain.AskOptions) ([]domain.RetrievedChunk, error)
}

// QueryRouter decides which language a question should be answered in.
type QueryRouter interface {
	// Route returns the answer language for a question.
	// An explicit language override wins; otherwise the language is
	// detected from the question's script.
	Route(question string, override domain.Language) domain.Language
}
