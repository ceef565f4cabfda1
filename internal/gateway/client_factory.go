package gateway

import (
	"fmt"
	"strings"
	"sync"

	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

// ClientFactory creates and caches LLM clients per provider and API key.
type ClientFactory struct {
	mu      sync.RWMutex
	clients map[string]nuancetypes.LLMClient
}

// NewClientFactory creates an empty factory.
func NewClientFactory() *ClientFactory {
	return &ClientFactory{clients: make(map[string]nuancetypes.LLMClient)}
}

// GetClient returns a cached or new client for provider.
// baseURL is only used by the openai provider.
func (f *ClientFactory) GetClient(provider, apiKey, baseURL string) (nuancetypes.LLMClient, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}
	if apiKey == "" && provider != "mock" {
		return nil, fmt.Errorf("API key cannot be empty for provider '%s': %w", provider, ErrNotConfigured)
	}

	cacheKey := provider + ":" + apiKey + ":" + baseURL

	f.mu.RLock()
	if client, ok := f.clients[cacheKey]; ok {
		f.mu.RUnlock()
		logger.Debug("Returning cached provider client", "provider", provider)
		return client, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[cacheKey]; ok {
		return client, nil
	}

	var client nuancetypes.LLMClient
	switch provider {
	case "openai":
		client = NewOpenAIClient(apiKey, baseURL)
	case "anthropic":
		client = NewAnthropicClient(apiKey)
	case "gemini":
		client = NewGeminiClient(apiKey)
	case "mock":
		client = NewMockClient()
	default:
		return nil, fmt.Errorf("unsupported provider '%s'. Supported providers: openai, anthropic, gemini, mock", provider)
	}

	f.clients[cacheKey] = client
	logger.Debug("Created new provider client", "provider", provider)
	return client, nil
}

// CachedClientCount returns the number of cached clients.
func (f *ClientFactory) CachedClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// ClearCache removes all cached clients.
func (f *ClientFactory) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = make(map[string]nuancetypes.LLMClient)
}
