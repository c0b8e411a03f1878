package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names fail unless the implementation has a default for them.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the answer composer.
const (
	// PromptAnswerSystem is the system prompt for grounded answering.
	// The template expects a single %s placeholder for the grounding context.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerQuestion wraps the user's question.
	// The template expects a single %s placeholder for the question.
	PromptAnswerQuestion = "answer_question"
)
