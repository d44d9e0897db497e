package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultK is the number of chunks retrieved per question.
const DefaultK = 3

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions with retrieval-augmented generation.
type ChatService struct {
	embedder  driven.EmbeddingService
	index     *IndexHandle
	generator driven.AnswerGenerator
	k         int
}

// NewChatService creates a chat service retrieving k chunks per question.
// A non-positive k uses DefaultK.
func NewChatService(
	embedder driven.EmbeddingService,
	index *IndexHandle,
	generator driven.AnswerGenerator,
	k int,
) *ChatService {
	if k <= 0 {
		k = DefaultK
	}
	return &ChatService{
		embedder:  embedder,
		index:     index,
		generator: generator,
		k:         k,
	}
}

// Ask embeds the question, retrieves the k nearest chunks and generates an
// answer from them. Errors from collaborators are returned unchanged.
func (s *ChatService) Ask(ctx context.Context, question string) (domain.Answer, error) {
	logger.Section("Ask")

	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	logger.Debug("Question: %q", question)

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return domain.Answer{}, err
	}
	if len(vectors) != 1 {
		return domain.Answer{}, fmt.Errorf("%w: expected 1 embedding, got %d", domain.ErrModelUnavailable, len(vectors))
	}

	idx, err := s.index.Get(ctx)
	if err != nil {
		return domain.Answer{}, err
	}
	hits, err := idx.Search(ctx, vectors[0], s.k)
	if err != nil {
		return domain.Answer{}, err
	}
	logger.Debug("Retrieved %d chunks from %s", len(hits), idx.Name())

	contexts := make([]string, len(hits))
	for i, h := range hits {
		contexts[i] = h.Entry.Content
		logger.Debug("  %d. %.3f %s", i+1, h.Similarity, h.Entry.Source)
	}

	answer, err := s.generator.Generate(ctx, question, contexts)
	if err != nil {
		return domain.Answer{}, err
	}
	answer.Sources = distinctSources(hits)
	return answer, nil
}

// distinctSources returns hit sources in rank order without repeats.
func distinctSources(hits []driven.VectorHit) []string {
	seen := make(map[string]bool, len(hits))
	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Entry.Source == "" || seen[h.Entry.Source] {
			continue
		}
		seen[h.Entry.Source] = true
		sources = append(sources, h.Entry.Source)
	}
	return sources
}
