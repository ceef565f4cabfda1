package dialogue

import (
	"fmt"
	"strings"
)

// Fixed responses.
const (
	ClosingByUser      = "Thank you for sharing! Ready to generate your English article now?"
	ClosingByMaxTurns  = "We've reached the maximum conversation turns. Ready to generate your English article now?"
	InvalidSessionText = "Invalid session. Please start a new conversation."
)

var fallbackQuestions = map[string]string{
	"happy":   "What made you feel happy recently?",
	"sad":     "Would you like to share what made you feel sad?",
	"angry":   "What happened that made you feel angry?",
	"excited": "What exciting thing happened to you?",
	"calm":    "What made you feel calm lately?",
}

// FallbackQuestion is asked when a reply could not be generated.
func FallbackQuestion(mood string) string {
	if q, ok := fallbackQuestions[strings.ToLower(mood)]; ok {
		return q
	}
	return fmt.Sprintf("Could you share more about your %s experience?", mood)
}

// OpeningQuestion is asked when the first question could not be generated.
func OpeningQuestion(mood string) string {
	return fmt.Sprintf("What happened that made you feel %s?", mood)
}

func recoveryQuestion(mood string) string {
	return fmt.Sprintf("Sorry, I had a trouble. Could you tell me more about your %s experience?", mood)
}
