package driven

import "context"

// LLMService provides chat completions from an external inference service.
//
// Implementations may include:
//   - Anthropic (Claude)
//   - OpenAI (GPT-4o family)
//   - Ollama (local models)
type LLMService interface {
	// Chat conducts a conversation and returns the assistant's text reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// SupportsImages reports whether ImageURLs reach the model.
	SupportsImages() bool

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string

	// ImageURLs are images attached ahead of the text. Providers whose
	// SupportsImages is false ignore them.
	ImageURLs []string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
