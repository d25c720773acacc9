// Package repository holds the in-memory session store. Sessions persist for
// the process lifetime; the conversation state machine is the store's only
// writer.
package repository

import (
	"context"
	"sync"
	"time"

	"leadchat_backend/internal/conversation/domain"
)

type entry struct {
	mu      sync.Mutex
	session *domain.Session
}

// Store maps session IDs to conversation sessions. Each session carries its
// own lock so concurrent requests for the same session serialize while
// different sessions proceed in parallel.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty session store.
func New() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (s *Store) get(sessionID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[sessionID]; ok {
		return e
	}
	now := s.now().UTC()
	e = &entry{session: &domain.Session{
		ID:             sessionID,
		Stage:          domain.StageGreeting,
		CreatedAt:      now,
		LastActivityAt: now,
	}}
	s.entries[sessionID] = e
	return e
}

// WithSession runs fn with exclusive access to the session, creating it at
// GREETING if it does not exist yet. Two concurrent calls for the same
// session run one after the other; fn must not retain the pointer.
func (s *Store) WithSession(ctx context.Context, sessionID string, fn func(*domain.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.get(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Snapshot returns a deep copy of the session, or false if it does not
// exist. Used by read paths that must not block writers for long.
func (s *Store) Snapshot(sessionID string) (domain.Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := *e.session
	out.History = append([]domain.Message(nil), e.session.History...)
	out.StageHistory = append([]domain.StageChange(nil), e.session.StageHistory...)
	return out, true
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
