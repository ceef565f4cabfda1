package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicClient implements LLMClient for Anthropic's Messages API.
type AnthropicClient struct {
	apiKey string

	mu     sync.Mutex
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client with lazy initialization.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey}
}

// ProviderName returns the provider name for this client.
func (c *AnthropicClient) ProviderName() string {
	return "anthropic"
}

// IsConfigured returns true if the client has an API key.
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *AnthropicClient) initializeClientIfNeeded() (*anthropic.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
	}

	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))
	c.client = &client
	logger.Debug("Anthropic client initialized", "provider", "anthropic")
	return c.client, nil
}

// Complete sends a message request and concatenates the returned text blocks.
func (c *AnthropicClient) Complete(ctx context.Context, req nuancetypes.CompletionRequest) (string, error) {
	client, err := c.initializeClientIfNeeded()
	if err != nil {
		return "", err
	}

	messages, extraSystem := convertMessagesToAnthropic(req)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: defaultAnthropicMaxTokens,
		Messages:  messages,
	}

	system := req.SystemPrompt
	if extraSystem != "" {
		if system != "" {
			system += "\n\n"
		}
		system += extraSystem
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = int64(*req.MaxTokens)
	}

	logger.Debug("Sending Anthropic request", "model", req.Model, "message_count", len(messages))
	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	if strings.TrimSpace(content.String()) == "" {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	logger.Debug("Anthropic response received", "content_length", content.Len())
	return content.String(), nil
}

// convertMessagesToAnthropic splits system messages out of the conversation,
// since the Messages API only accepts them as the top-level system prompt.
func convertMessagesToAnthropic(req nuancetypes.CompletionRequest) ([]anthropic.MessageParam, string) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	var system []string

	for _, msg := range req.Messages {
		switch msg.Role {
		case "user":
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case "system":
			system = append(system, msg.Content)
		}
	}
	return messages, strings.Join(system, "\n\n")
}
