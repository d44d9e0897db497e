package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// AnswerGenerator produces an answer to a question grounded in context chunks.
type AnswerGenerator interface {
	// Generate formats the fixed answer template and calls the language model.
	// An empty context still produces an answer. Failures wrap domain.ErrGeneration.
	Generate(ctx context.Context, question string, context []string) (domain.Answer, error)
}
