// Package gateway provides the text generation gateway used by Nuance: provider
// clients for OpenAI-compatible, Anthropic and Gemini APIs, the embedded prompt
// catalog, and classification of generation attempts.
package gateway

import "errors"

var (
	// ErrNotConfigured is returned by clients that have no API key.
	ErrNotConfigured = errors.New("llm client not configured")

	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("empty response content")

	// ErrPromptRender is returned when a prompt template cannot be rendered.
	ErrPromptRender = errors.New("prompt render failed")

	// ErrUnknownPrompt is returned by PromptCatalog.Get for missing names.
	ErrUnknownPrompt = errors.New("unknown prompt")
)
