// Package session holds the in-memory dialogue sessions of the Nuance backend.
// All mutation goes through Store, which serialises work per session id.
package session

import (
	"sync"

	"nuance/pkg/nuancetypes"
)

// Session is one interview's turn log and lifecycle state.
// Methods are safe to call while the owning Store holds the session for an update;
// readers outside an update only ever see complete turns.
type Session struct {
	id string

	mu     sync.RWMutex
	turns  []nuancetypes.Turn
	active bool
	ended  nuancetypes.EndReason
}

func newSession(id string) *Session {
	return &Session{id: id, active: true}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Append adds a turn to the log.
func (s *Session) Append(speaker nuancetypes.Speaker, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, nuancetypes.Turn{Speaker: speaker, Text: text})
}

// Turns returns a copy of the turn log.
func (s *Session) Turns() []nuancetypes.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]nuancetypes.Turn(nil), s.turns...)
}

// UserTurns counts the User turns in the log.
func (s *Session) UserTurns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.turns {
		if t.Speaker == nuancetypes.SpeakerUser {
			n++
		}
	}
	return n
}

// Active reports whether the session still accepts replies.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// End moves the session to its terminal state. Ending twice keeps the first reason.
func (s *Session) End(reason nuancetypes.EndReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	s.ended = reason
}

// EndReason returns why the session ended, or "" while active.
func (s *Session) EndReason() nuancetypes.EndReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ended
}
