package dialogue

import "strings"

// PhraseMatcher detects trigger phrases by case-insensitive substring search.
// "stop" also matches "unstoppable".
type PhraseMatcher struct {
	phrases []string
}

// NewPhraseMatcher builds a matcher. Blank phrases are ignored.
func NewPhraseMatcher(phrases []string) *PhraseMatcher {
	m := &PhraseMatcher{}
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			m.phrases = append(m.phrases, p)
		}
	}
	return m
}

// Match returns the first phrase contained in text.
func (m *PhraseMatcher) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range m.phrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// Phrases returns the normalised phrase list.
func (m *PhraseMatcher) Phrases() []string {
	return append([]string(nil), m.phrases...)
}
