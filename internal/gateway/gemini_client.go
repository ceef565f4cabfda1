package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

// GeminiClient implements LLMClient for the Google Gemini API.
type GeminiClient struct {
	apiKey string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client with lazy initialization.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey}
}

// ProviderName returns the provider name for this client.
func (c *GeminiClient) ProviderName() string {
	return "gemini"
}

// IsConfigured returns true if the client has an API key.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	logger.Debug("Gemini client initialized", "provider", "gemini")
	return c.client, nil
}

// Complete sends a GenerateContent request. Thought parts are skipped.
func (c *GeminiClient) Complete(ctx context.Context, req nuancetypes.CompletionRequest) (string, error) {
	client, err := c.initializeClientIfNeeded(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.MaxTokens)
	}

	contents := convertMessagesToGemini(req)
	logger.Debug("Sending Gemini request", "model", req.Model, "content_count", len(contents))
	result, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var content strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			content.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(content.String()) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	logger.Debug("Gemini response received", "content_length", content.Len())
	return content.String(), nil
}

func convertMessagesToGemini(req nuancetypes.CompletionRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var role, text string
		switch msg.Role {
		case "user":
			role, text = "user", msg.Content
		case "assistant":
			role, text = "model", msg.Content
		case "system":
			role, text = "user", "System: "+msg.Content
		default:
			continue
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: text}},
			Role:  role,
		})
	}
	if len(contents) == 0 {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: ""}}, Role: "user"})
	}
	return contents
}
