package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"nuance/pkg/nuancetypes"
)

// Responder produces a mock completion for a request.
type Responder func(req nuancetypes.CompletionRequest) (string, error)

// MockClient is an offline LLMClient. With scripted responses it replays them
// in order (repeating the last); otherwise it uses a deterministic responder
// that imitates the interview, correction and polish prompts.
type MockClient struct {
	mu        sync.Mutex
	script    []string
	calls     int
	responder Responder
	requests  []nuancetypes.CompletionRequest
}

// NewMockClient creates a mock client replaying the given responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{script: responses, responder: defaultResponder}
}

// NewMockClientWithResponder creates a mock client backed by fn.
func NewMockClientWithResponder(fn Responder) *MockClient {
	return &MockClient{responder: fn}
}

// ProviderName returns the provider name for this client.
func (m *MockClient) ProviderName() string {
	return "mock"
}

// IsConfigured always returns true.
func (m *MockClient) IsConfigured() bool {
	return true
}

// Complete returns the next scripted response or the responder's answer.
func (m *MockClient) Complete(ctx context.Context, req nuancetypes.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	var scripted string
	useScript := len(m.script) > 0
	if useScript {
		idx := m.calls - 1
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		scripted = m.script[idx]
	}
	responder := m.responder
	m.mu.Unlock()

	if useScript {
		return scripted, nil
	}
	return responder(req)
}

// Calls returns how many completions were requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of the recorded requests.
func (m *MockClient) Requests() []nuancetypes.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]nuancetypes.CompletionRequest(nil), m.requests...)
}

func defaultResponder(req nuancetypes.CompletionRequest) (string, error) {
	var user string
	if n := len(req.Messages); n > 0 {
		user = req.Messages[n-1].Content
	}

	switch {
	case strings.Contains(req.SystemPrompt, `"corrections"`):
		original := lastUserLine(user)
		payload := map[string][]map[string]string{
			"corrections": {{
				"type":        "perfect",
				"original":    original,
				"suggestion":  original,
				"explanation": "无错误：表达自然。",
			}},
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("mock: %w", err)
		}
		return string(data), nil
	case strings.Contains(req.SystemPrompt, "article"):
		return "Today I took a moment to write about how I felt. " + strings.TrimSpace(user), nil
	default:
		return "Could you tell me a little more about that?", nil
	}
}

func lastUserLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), "User: "); ok {
			return rest
		}
	}
	return strings.TrimSpace(text)
}
