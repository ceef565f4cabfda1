// Package nuancetypes defines the shared types of the Nuance journaling backend.
// This file contains the turn log and the result shapes returned by the dialogue orchestrator.
package nuancetypes

// Speaker identifies who produced a turn in a session log.
type Speaker int

// Speakers recognised in a session log.
const (
	SpeakerSystem Speaker = iota
	SpeakerUser
	SpeakerAssistant
)

// Role returns the wire role name used in history responses.
func (s Speaker) Role() string {
	switch s {
	case SpeakerSystem:
		return "system"
	case SpeakerUser:
		return "user"
	case SpeakerAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer.
func (s Speaker) String() string {
	return s.Role()
}

// Turn is one utterance in a session log.
type Turn struct {
	Speaker Speaker
	Text    string
}

// HistoryEntry is the plain role/content form of a Turn.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorCode classifies orchestrator results that carry a failure.
type ErrorCode string

// Result codes returned by the orchestrator. They are values, not Go errors.
const (
	CodeSessionExists  ErrorCode = "session_exists"
	CodeSessionInvalid ErrorCode = "session_invalid"
)

// EndReason records which end condition closed a session.
type EndReason string

// End reasons reported in ReplyResult.EndedBy.
const (
	EndedByUser     EndReason = "user"
	EndedByMaxTurns EndReason = "max_turns"
	EndedByAI       EndReason = "ai"
)

// StartResult is returned by StartSession.
type StartResult struct {
	SessionID string    `json:"session_id"`
	Response  string    `json:"response"`
	TurnsLeft int       `json:"turns_left"`
	Active    bool      `json:"session_active"`
	Code      ErrorCode `json:"code,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// ReplyResult is returned by UserReply.
type ReplyResult struct {
	Response  string    `json:"response"`
	Active    bool      `json:"session_active"`
	TurnsLeft int       `json:"turns_left"`
	EndedBy   EndReason `json:"ended_by,omitempty"`
	Code      ErrorCode `json:"code,omitempty"`
	Error     string    `json:"error,omitempty"`
}
