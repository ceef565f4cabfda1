package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts(t *testing.T) {
	catalog, err := DefaultPrompts()
	require.NoError(t, err)

	for _, name := range []string{PromptInterview, PromptCorrection, PromptPolish} {
		_, err := catalog.Get(name)
		assert.NoError(t, err, name)
	}

	_, err = catalog.Get("summary")
	assert.ErrorIs(t, err, ErrUnknownPrompt)
}

func TestPrompt_Render(t *testing.T) {
	catalog, err := DefaultPrompts()
	require.NoError(t, err)
	p, err := catalog.Get(PromptInterview)
	require.NoError(t, err)

	system, user, err := p.Render(map[string]string{
		"mood":                 "sad",
		"conversation_history": "User: I lost my keys.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, system)
	assert.Contains(t, user, "Current mood: sad")
	assert.Contains(t, user, "User: I lost my keys.")

	_, _, err = p.Render(map[string]string{"mood": "sad"})
	assert.ErrorIs(t, err, ErrPromptRender)
}

func TestLoadPrompts_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad yaml", data: "prompts: [\n"},
		{name: "missing name", data: "prompts:\n  - system: hi\n    user: there\n"},
		{name: "bad template", data: "prompts:\n  - name: x\n    system: \"{{.a\"\n    user: ok\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPrompts([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestPromptGateway_Generate(t *testing.T) {
	catalog, err := LoadPrompts([]byte("prompts:\n  - name: echo\n    system: be brief\n    user: \"say {{.word}}\"\n"))
	require.NoError(t, err)
	p, err := catalog.Get("echo")
	require.NoError(t, err)

	temp := 0.2
	client := NewMockClient("ok")
	gw := NewPromptGateway(client, p, ModelParams{Model: "m1", Temperature: &temp})

	out, err := gw.Generate(context.Background(), map[string]string{"word": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "m1", reqs[0].Model)
	assert.Equal(t, "be brief", reqs[0].SystemPrompt)
	require.Len(t, reqs[0].Messages, 1)
	assert.Equal(t, "say hello", reqs[0].Messages[0].Content)
	assert.Equal(t, &temp, reqs[0].Temperature)

	_, err = gw.Generate(context.Background(), map[string]string{})
	assert.ErrorIs(t, err, ErrPromptRender)
	assert.Equal(t, 1, client.Calls())
}

func TestPromptGateway_NotConfigured(t *testing.T) {
	catalog, err := DefaultPrompts()
	require.NoError(t, err)
	p, err := catalog.Get(PromptPolish)
	require.NoError(t, err)

	gw := NewPromptGateway(NewOpenAIClient("", ""), p, ModelParams{})
	_, err = gw.Generate(context.Background(), map[string]string{"mood": "calm", "conversation": "User: hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
