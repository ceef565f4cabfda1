package article

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"nuance/internal/testutils"
	"nuance/pkg/nuancetypes"
)

func TestPolish(t *testing.T) {
	gen := testutils.Texts("  Today I went to the park with my sister.\n\nIt was lovely.  ")
	p := NewPolisher(gen)

	got := p.Polish(context.Background(), testutils.SampleTranscript(), "happy")
	assert.Equal(t, nuancetypes.Article{
		Status:    nuancetypes.ArticleSuccess,
		Article:   "Today I went to the park with my sister.\n\nIt was lovely.",
		WordCount: 12,
	}, got)

	call := gen.LastCall()
	assert.Equal(t, "happy", call["mood"])
	assert.Contains(t, call["conversation"], "Ai: What happened that made you feel happy?\nUser: I goed")
}

func TestPolish_DefaultMood(t *testing.T) {
	gen := testutils.Texts("Words.")
	NewPolisher(gen).Polish(context.Background(), testutils.SampleTranscript(), " ")
	assert.Equal(t, DefaultMood, gen.LastCall()["mood"])
}

func TestPolish_Failures(t *testing.T) {
	tests := []struct {
		name       string
		gen        *testutils.ScriptedGenerator
		transcript []nuancetypes.TranscriptEntry
		wantErr    string
	}{
		{name: "empty transcript", gen: testutils.Texts("x"), wantErr: "conversation cannot be empty"},
		{
			name:       "gateway error",
			gen:        testutils.NewScriptedGenerator(testutils.Step{Err: errors.New("timeout")}),
			transcript: testutils.SampleTranscript(),
			wantErr:    "polish failed: timeout",
		},
		{name: "blank article", gen: testutils.Texts("   "), transcript: testutils.SampleTranscript(), wantErr: "polish failed: empty article"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPolisher(tt.gen).Polish(context.Background(), tt.transcript, "sad")
			assert.Equal(t, nuancetypes.ArticleError, got.Status)
			assert.Equal(t, tt.wantErr, got.Error)
			assert.Empty(t, got.Article)
			assert.Zero(t, got.WordCount)
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount(" one\ttwo\nthree "))
}
