// Package article turns an interview transcript into a short first-person English article.
package article

import (
	"context"
	"strings"
	"unicode"

	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

// DefaultMood is used when Polish is called without a mood.
const DefaultMood = "neutral"

// Polisher generates articles through a Generator bound to the polish prompt.
type Polisher struct {
	gen nuancetypes.Generator
}

// NewPolisher creates a polisher.
func NewPolisher(gen nuancetypes.Generator) *Polisher {
	return &Polisher{gen: gen}
}

// Polish generates the article. It reports failures in the returned Article.
func (p *Polisher) Polish(ctx context.Context, transcript []nuancetypes.TranscriptEntry, mood string) nuancetypes.Article {
	if len(transcript) == 0 {
		return nuancetypes.Article{Status: nuancetypes.ArticleError, Error: "conversation cannot be empty"}
	}
	if strings.TrimSpace(mood) == "" {
		mood = DefaultMood
	}

	text, err := p.gen.Generate(ctx, map[string]string{
		"conversation": FormatConversation(transcript),
		"mood":         mood,
	})
	if err != nil {
		logger.Error("Article polish failed", "error", err)
		return nuancetypes.Article{Status: nuancetypes.ArticleError, Error: "polish failed: " + err.Error()}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nuancetypes.Article{Status: nuancetypes.ArticleError, Error: "polish failed: empty article"}
	}

	words := WordCount(text)
	logger.Debug("Article generated", "words", words, "mood", mood)
	return nuancetypes.Article{Status: nuancetypes.ArticleSuccess, Article: text, WordCount: words}
}

// FormatConversation renders entries as "Ai: ..." and "User: ..." lines.
func FormatConversation(transcript []nuancetypes.TranscriptEntry) string {
	lines := make([]string, 0, len(transcript))
	for _, e := range transcript {
		lines = append(lines, capitalize(e.Type)+": "+e.Text)
	}
	return strings.Join(lines, "\n")
}

// WordCount counts whitespace-separated fields.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
