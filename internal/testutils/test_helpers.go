package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nuance/pkg/nuancetypes"
)

// SampleTranscript returns a short interview transcript as a frontend would send it.
func SampleTranscript() []nuancetypes.TranscriptEntry {
	return []nuancetypes.TranscriptEntry{
		{Type: "ai", Text: "What happened that made you feel happy?"},
		{Type: "user", Text: "I goed to the park with my sister."},
		{Type: "ai", Text: "That sounds lovely! What did you do there?"},
		{Type: "user", Text: "We eat ice cream and watched the ducks."},
	}
}

// CorrectionJSON is a well-formed correction payload with one item per listed category.
func CorrectionJSON() string {
	return `{"corrections":[` +
		`{"type":"tense","original":"I goed","suggestion":"I went","explanation":"go 的过去式是 went"},` +
		`{"type":"tense","original":"We eat","suggestion":"We ate","explanation":"叙述过去应使用过去时"}` +
		`]}`
}

// CreateTempFile writes content to filename inside a test temp dir and returns its path.
func CreateTempFile(t *testing.T, filename, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
