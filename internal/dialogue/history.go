package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

const (
	// DefaultMood is used whenever the seed turn cannot be parsed.
	DefaultMood = "happy"

	firstConversation = "This is the first conversation, no history yet."
	noHistory         = "No conversation history available yet."
	emptyUserText     = "The user did not provide content."
	emptyAssistant    = "The AI did not provide a response."
)

// SeedText is the System turn that opens every session.
func SeedText(mood string) string {
	return "User mood: " + strings.TrimSpace(mood)
}

// FormatHistory flattens the User and Assistant turns into prompt text.
// System turns are omitted.
func FormatHistory(turns []nuancetypes.Turn) string {
	var lines []string
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		switch t.Speaker {
		case nuancetypes.SpeakerUser:
			if text == "" {
				text = emptyUserText
			}
			lines = append(lines, "User: "+text)
		case nuancetypes.SpeakerAssistant:
			if text == "" {
				text = emptyAssistant
			}
			lines = append(lines, "AI Assistant: "+text)
		}
	}
	if len(lines) == 0 {
		return noHistory
	}
	return strings.Join(lines, "\n")
}

// ParseMood reads the mood from the seed turn, splitting on the last ':' or '：'.
func ParseMood(turns []nuancetypes.Turn) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("session has no turns")
	}
	seed := turns[0]
	if seed.Speaker != nuancetypes.SpeakerSystem {
		return "", fmt.Errorf("first turn is %s, not system", seed.Speaker)
	}

	text := strings.TrimSpace(seed.Text)
	idx := max(strings.LastIndex(text, ":"), strings.LastIndex(text, "："))
	if idx < 0 {
		return "", fmt.Errorf("invalid seed format: %q", text)
	}
	sep := ":"
	if strings.HasPrefix(text[idx:], "：") {
		sep = "："
	}
	mood := strings.TrimSpace(text[idx+len(sep):])
	if mood == "" {
		return "", fmt.Errorf("empty mood in seed %q", text)
	}
	return mood, nil
}

// ExtractMood is ParseMood with the DefaultMood fallback. It never fails.
func ExtractMood(sessionID string, turns []nuancetypes.Turn) string {
	mood, err := ParseMood(turns)
	if err != nil {
		logger.Warn("Failed to extract mood, using default", "session", sessionID, "error", err, "default", DefaultMood)
		return DefaultMood
	}
	return mood
}

// ToHistoryEntries converts turns into their role/content form.
func ToHistoryEntries(turns []nuancetypes.Turn) []nuancetypes.HistoryEntry {
	entries := make([]nuancetypes.HistoryEntry, 0, len(turns))
	for _, t := range turns {
		entries = append(entries, nuancetypes.HistoryEntry{Role: t.Speaker.Role(), Content: t.Text})
	}
	return entries
}
