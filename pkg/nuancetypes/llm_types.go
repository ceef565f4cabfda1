package nuancetypes

import "context"

// Generator is the text generation capability consumed by the orchestrator,
// the correction analyzer and the article polisher.
type Generator interface {
	Generate(ctx context.Context, vars map[string]string) (string, error)
}

// ChatMessage is a single message sent to an LLM provider.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest carries everything a provider client needs for one call.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	Temperature  *float64
	MaxTokens    *int
}

// LLMClient abstracts the provider SDKs (OpenAI, Anthropic, Gemini).
type LLMClient interface {
	// Complete sends a chat completion request and returns the text content.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ProviderName returns the provider name (e.g. "openai", "anthropic").
	ProviderName() string

	// IsConfigured reports whether the client can make requests.
	IsConfigured() bool
}
