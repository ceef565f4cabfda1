package server

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Client → Server message types.
const (
	TypeSessionStart   = "session.start"
	TypeSessionReply   = "session.reply"
	TypeSessionHistory = "session.history"
	TypeSessionEnd     = "session.end"
)

// Server → Client message types. session.history answers with the same type.
const (
	TypeSessionStarted = "session.started"
	TypeSessionReplied = "session.replied"
	TypeSessionEnded   = "session.ended"
	TypeError          = "error"
)

// Error codes sent in error payloads.
const (
	ErrInvalidMessage = "invalid_message"
	ErrInternal       = "internal_error"
)

type sessionPayload struct {
	SessionID string `json:"session_id"`
	Mood      string `json:"mood,omitempty"`
	UserInput string `json:"user_input,omitempty"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func newMessage(msgType string, payload any, now time.Time) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{Type: msgType, Payload: data, Timestamp: now.UTC()}, nil
}

// parseClientMessage validates a raw client message and its payload.
func parseClientMessage(raw []byte) (string, sessionPayload, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", sessionPayload{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if msg.Type == "" {
		return "", sessionPayload{}, fmt.Errorf("missing 'type' field")
	}

	var p sessionPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return "", sessionPayload{}, fmt.Errorf("invalid payload for %s: %w", msg.Type, err)
		}
	}

	switch msg.Type {
	case TypeSessionStart:
	case TypeSessionReply:
		if p.SessionID == "" || p.UserInput == "" {
			return "", p, fmt.Errorf("missing required field 'session_id' or 'user_input' in %s payload", msg.Type)
		}
	case TypeSessionHistory, TypeSessionEnd:
		if p.SessionID == "" {
			return "", p, fmt.Errorf("missing required field 'session_id' in %s payload", msg.Type)
		}
	default:
		return "", p, fmt.Errorf("unknown message type: %s", msg.Type)
	}
	return msg.Type, p, nil
}
