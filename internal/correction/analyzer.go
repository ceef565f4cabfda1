package correction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

// ErrNoHistory is returned when there is nothing to analyse.
var ErrNoHistory = errors.New("no conversation history")

// Analyzer asks the gateway for corrections and validates the answer.
type Analyzer struct {
	gen nuancetypes.Generator
}

// NewAnalyzer creates an analyzer backed by gen (the correction prompt).
func NewAnalyzer(gen nuancetypes.Generator) *Analyzer {
	return &Analyzer{gen: gen}
}

// AnalyzeTranscript analyses a caller-supplied transcript.
// Gateway failures are returned as errors; there is no retry.
func (a *Analyzer) AnalyzeTranscript(ctx context.Context, transcript []nuancetypes.TranscriptEntry) (nuancetypes.CorrectionResult, error) {
	if len(transcript) == 0 {
		return nuancetypes.CorrectionResult{}, ErrNoHistory
	}

	raw, err := a.gen.Generate(ctx, map[string]string{
		"conversation_context": FormatTranscript(transcript),
		"error_types":          CategoryLabels(),
	})
	if err != nil {
		return nuancetypes.CorrectionResult{}, fmt.Errorf("correction generation failed: %w", err)
	}

	result, err := Validate(raw, len(transcript))
	if err != nil {
		logger.Warn("Unparseable correction response", "error", err, "length", len(raw))
		return nuancetypes.CorrectionResult{}, err
	}
	logger.Debug("Writing analysed", "corrections", result.TotalCount, "entries", result.SourceLength)
	return result, nil
}

// AnalyzeSession analyses a session history. System entries are skipped.
func (a *Analyzer) AnalyzeSession(ctx context.Context, history []nuancetypes.HistoryEntry) (nuancetypes.CorrectionResult, error) {
	transcript := TranscriptFromHistory(history)
	if len(transcript) == 0 {
		return nuancetypes.CorrectionResult{}, ErrNoHistory
	}
	return a.AnalyzeTranscript(ctx, transcript)
}

// FormatTranscript renders transcript lines as "Assistant: ..." and "User: ...".
func FormatTranscript(transcript []nuancetypes.TranscriptEntry) string {
	lines := make([]string, 0, len(transcript))
	for _, e := range transcript {
		speaker := "User"
		if e.Type == "ai" {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+e.Text)
	}
	return strings.Join(lines, "\n")
}

// TranscriptFromHistory converts user and assistant history entries into transcript form.
func TranscriptFromHistory(history []nuancetypes.HistoryEntry) []nuancetypes.TranscriptEntry {
	var transcript []nuancetypes.TranscriptEntry
	for _, h := range history {
		switch h.Role {
		case "assistant":
			transcript = append(transcript, nuancetypes.TranscriptEntry{Type: "ai", Text: h.Content})
		case "user":
			transcript = append(transcript, nuancetypes.TranscriptEntry{Type: "user", Text: h.Content})
		}
	}
	return transcript
}
