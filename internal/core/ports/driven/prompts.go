package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswerSystem is the assistant persona for grounded answers.
	// The template expects a {context} placeholder for the retrieved chunks.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the user's question.
	// The template expects a {question} placeholder.
	PromptAnswerUser = "answer_user"
)
