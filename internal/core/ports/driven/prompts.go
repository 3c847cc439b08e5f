package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptClassify is the classification agent prompt.
	// Placeholders, in order: %s image instruction, %s author, %s content, %s image note.
	PromptClassify = "classify"

	// PromptComplete is the completion agent prompt.
	// Placeholders, in order: %s missing fields, %s content.
	PromptComplete = "complete"
)
