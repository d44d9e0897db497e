package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Template placeholders substituted by the answer generator.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// Ensure AnswerGenerator implements the interface.
var _ driven.AnswerGenerator = (*AnswerGenerator)(nil)

// AnswerGenerator fills the answer prompt templates and asks the LLM.
type AnswerGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.ChatOptions
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(llm driven.LLMService, prompts driven.PromptStore, opts driven.ChatOptions) *AnswerGenerator {
	return &AnswerGenerator{llm: llm, prompts: prompts, opts: opts}
}

// Generate answers question from the given context chunks.
// An empty context is still sent; the system prompt tells the model to
// say it does not know.
func (g *AnswerGenerator) Generate(ctx context.Context, question string, context []string) (domain.Answer, error) {
	messages, err := g.Messages(question, context)
	if err != nil {
		return domain.Answer{}, err
	}

	logger.Debug("Generating with %s (%d context chunks)", g.llm.ModelName(), len(context))
	text, err := g.llm.Chat(ctx, messages, g.opts)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Answer{}, fmt.Errorf("%w: model %s returned an empty answer", domain.ErrGeneration, g.llm.ModelName())
	}
	return domain.Answer{Text: text}, nil
}

// Messages builds the system and user messages for a question.
func (g *AnswerGenerator) Messages(question string, context []string) ([]driven.ChatMessage, error) {
	system, err := g.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, err
	}
	user, err := g.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return nil, err
	}

	return []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: strings.ReplaceAll(system, PlaceholderContext, strings.Join(context, "\n\n"))},
		{Role: driven.RoleUser, Content: strings.ReplaceAll(user, PlaceholderQuestion, question)},
	}, nil
}
