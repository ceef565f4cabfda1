package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestConfigure_WritesToFile(t *testing.T) {
	original := Logger
	t.Cleanup(func() { Logger = original })

	path := filepath.Join(t.TempDir(), "api.log")
	require.NoError(t, Configure("debug", path, "json"))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	Info("Request completed", "status", 200)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Request completed"`)
	assert.Contains(t, string(data), `"status":200`)
}

func TestConfigure_UnknownFormat(t *testing.T) {
	original := Logger
	t.Cleanup(func() { Logger = original })

	err := Configure("info", "", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log format")
}

func TestConfigure_EnvFallback(t *testing.T) {
	original := Logger
	t.Cleanup(func() { Logger = original })
	t.Setenv("NUANCE_LOG_LEVEL", "warn")

	require.NoError(t, Configure("", "", "text"))
	assert.Equal(t, log.WarnLevel, Logger.GetLevel())
}

func TestNewStyledLogger_MatchesGlobalLevel(t *testing.T) {
	original := Logger
	t.Cleanup(func() { Logger = original })

	require.NoError(t, Configure("error", "", ""))
	l := NewStyledLogger("Dialogue")
	assert.Equal(t, log.ErrorLevel, l.GetLevel())

	SetLevel("debug")
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())
}
