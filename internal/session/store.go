package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

var (
	// ErrNotFound is returned for unknown or removed session ids.
	ErrNotFound = errors.New("session not found")

	// ErrExists is returned by Start when an active session already uses the id.
	ErrExists = errors.New("session already exists")
)

type entry struct {
	// mu serialises Start and Update work for one id, including slow generation calls.
	mu       sync.Mutex
	removed  bool
	active   atomic.Bool
	lastUsed atomic.Int64
	session  *Session
}

// Store maps session ids to sessions. Different ids never contend beyond the map lookup.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a session for id and runs fn while holding it.
// An ended session with the same id is replaced; an active one yields ErrExists.
func (s *Store) Start(id string, fn func(*Session)) error {
	now := s.now()

	s.mu.Lock()
	if existing, ok := s.entries[id]; ok && existing.active.Load() {
		s.mu.Unlock()
		return ErrExists
	}
	e := &entry{session: newSession(id)}
	e.active.Store(true)
	e.lastUsed.Store(now.UnixNano())
	e.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()

	defer e.mu.Unlock()
	defer s.settle(e)
	fn(e.session)
	return nil
}

// Update runs fn while holding the session for id. Concurrent updates of the same
// id run one after another in arrival order of the lock.
func (s *Store) Update(id string, fn func(*Session)) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return ErrNotFound
	}
	defer s.settle(e)
	fn(e.session)
	return nil
}

func (s *Store) settle(e *entry) {
	e.active.Store(e.session.Active())
	e.lastUsed.Store(s.now().UnixNano())
}

// IsActive reports whether id maps to an active session. It never waits for
// an in-flight update.
func (s *Store) IsActive(id string) bool {
	e, ok := s.lookup(id)
	return ok && e.active.Load()
}

// History returns a copy of the turn log for id.
func (s *Store) History(id string) ([]nuancetypes.Turn, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return e.session.Turns(), true
}

// EndReason returns why id ended, or "" while it is active.
func (s *Store) EndReason(id string) (nuancetypes.EndReason, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return "", false
	}
	return e.session.EndReason(), true
}

// Delete removes id. It waits for an in-flight update to finish; later updates
// see ErrNotFound. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	e, ok := s.lookup(id)
	if !ok {
		return
	}

	e.mu.Lock()
	e.removed = true
	e.active.Store(false)
	e.mu.Unlock()

	s.mu.Lock()
	if current, ok := s.entries[id]; ok && current == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes sessions idle for longer than idle and returns how many were removed.
// Sessions busy with an update are skipped.
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle).UnixNano()

	s.mu.RLock()
	var stale []string
	for id, e := range s.entries {
		if e.lastUsed.Load() < cutoff {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		e, ok := s.lookup(id)
		if !ok || !e.mu.TryLock() {
			continue
		}
		if e.removed || e.lastUsed.Load() >= cutoff {
			e.mu.Unlock()
			continue
		}
		e.removed = true
		e.active.Store(false)
		e.mu.Unlock()

		s.mu.Lock()
		if current, ok := s.entries[id]; ok && current == e {
			delete(s.entries, id)
			removed++
		}
		s.mu.Unlock()
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(idle); n > 0 {
				logger.Info("Evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}
