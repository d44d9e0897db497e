package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ChatService answers questions from the indexed documents.
// Each call is independent; no conversation state is kept.
type ChatService interface {
	// Ask embeds the question, retrieves the closest chunks and generates
	// a grounded answer. Collaborator errors are returned unchanged.
	Ask(ctx context.Context, question string) (domain.Answer, error)
}
