package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuance/internal/app"
	"nuance/internal/config"
	"nuance/internal/testutils"
)

func mockApp(t *testing.T) *app.App {
	t.Helper()
	path := testutils.CreateTempFile(t, "nuance.yaml", "llm:\n  provider: mock\ndialogue:\n  max_turns: 2\n")
	c, err := config.Load(config.New(path))
	require.NoError(t, err)
	a, err := app.Build(c, nil)
	require.NoError(t, err)
	return a
}

func TestChatSession_RunsUntilMaxTurns(t *testing.T) {
	a := mockApp(t)
	var out bytes.Buffer
	chat := newChatSession(a, plainRenderer(t), &out)
	ctx := context.Background()

	require.NoError(t, chat.Start(ctx, "happy"))
	assert.Contains(t, out.String(), "AI: Could you tell me a little more about that?")
	assert.Contains(t, out.String(), "(2 turns left)")

	assert.False(t, chat.Reply(ctx, "I baked a cake."))
	assert.Contains(t, out.String(), "(1 turns left)")

	assert.False(t, chat.Reply(ctx, "It was chocolate."))
	assert.Contains(t, out.String(), "(0 turns left)")

	assert.True(t, chat.Reply(ctx, "We ate it all."))
	text := out.String()
	assert.Contains(t, text, "## Your article")
	assert.Contains(t, text, "It was chocolate.")
	assert.Contains(t, text, "Writing feedback (1 items)")
	assert.False(t, a.Store.IsActive(chat.id))
	assert.Zero(t, a.Store.Len())
}

func TestChatSession_EndPhraseAndIdempotentFinish(t *testing.T) {
	a := mockApp(t)
	var out bytes.Buffer
	chat := newChatSession(a, plainRenderer(t), &out)
	ctx := context.Background()

	require.NoError(t, chat.Start(ctx, "calm"))
	assert.False(t, chat.Reply(ctx, "   "))
	assert.True(t, chat.Reply(ctx, "stop"))

	size := out.Len()
	chat.Finish(ctx)
	assert.True(t, chat.Reply(ctx, "hello again"))
	assert.Equal(t, size, out.Len())
}

func TestChatSession_FinishWithoutReplies(t *testing.T) {
	a := mockApp(t)
	var out bytes.Buffer
	chat := newChatSession(a, plainRenderer(t), &out)
	ctx := context.Background()

	require.NoError(t, chat.Start(ctx, "tired"))
	chat.Finish(ctx)
	assert.Contains(t, out.String(), "## Your article")
	assert.Zero(t, a.Store.Len())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Nuance v")
}
