package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuance/pkg/nuancetypes"
)

func TestClientFactory_GetClient(t *testing.T) {
	f := NewClientFactory()

	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "openai"},
		{"Anthropic", "anthropic"},
		{"gemini", "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c, err := f.GetClient(tt.provider, "key", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ProviderName())
			assert.True(t, c.IsConfigured())
		})
	}
	assert.Equal(t, 3, f.CachedClientCount())

	again, err := f.GetClient("openai", "key", "")
	require.NoError(t, err)
	first, _ := f.GetClient("openai", "key", "")
	assert.Same(t, first, again)
	assert.Equal(t, 3, f.CachedClientCount())

	f.ClearCache()
	assert.Equal(t, 0, f.CachedClientCount())
}

func TestClientFactory_Errors(t *testing.T) {
	f := NewClientFactory()

	_, err := f.GetClient("", "key", "")
	assert.Error(t, err)

	_, err = f.GetClient("openai", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = f.GetClient("deepseek", "key", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")

	mock, err := f.GetClient("mock", "", "")
	require.NoError(t, err)
	assert.Equal(t, "mock", mock.ProviderName())
}

func TestMockClient_Script(t *testing.T) {
	c := NewMockClient("first", "second")
	ctx := context.Background()

	for _, want := range []string{"first", "second", "second"} {
		got, err := c.Complete(ctx, nuancetypes.CompletionRequest{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, c.Calls())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := c.Complete(canceled, nuancetypes.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockClient_DefaultResponder(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	out, err := c.Complete(ctx, nuancetypes.CompletionRequest{
		SystemPrompt: `Reply with a "corrections" array.`,
		Messages:     []nuancetypes.ChatMessage{{Role: "user", Content: "Assistant: hi\nUser: I goed home"}},
	})
	require.NoError(t, err)
	var parsed struct {
		Corrections []map[string]string `json:"corrections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed.Corrections, 1)
	assert.Equal(t, "I goed home", parsed.Corrections[0]["original"])

	out, err = c.Complete(ctx, nuancetypes.CompletionRequest{
		SystemPrompt: "Write an article.",
		Messages:     []nuancetypes.ChatMessage{{Role: "user", Content: "User: I went hiking."}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "I went hiking.")

	out, err = c.Complete(ctx, nuancetypes.CompletionRequest{SystemPrompt: "Interview"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestConvertMessages(t *testing.T) {
	req := nuancetypes.CompletionRequest{
		SystemPrompt: "sys",
		Messages: []nuancetypes.ChatMessage{
			{Role: "user", Content: "a"},
			{Role: "assistant", Content: "b"},
			{Role: "system", Content: "c"},
		},
	}

	assert.Len(t, convertMessagesToOpenAI(req), 4)

	msgs, system := convertMessagesToAnthropic(req)
	assert.Len(t, msgs, 2)
	assert.Equal(t, "c", system)

	contents := convertMessagesToGemini(req)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "System: c", contents[2].Parts[0].Text)
}
