// Package service implements the ephemeral live-session registry backing
// the realtime signaling endpoints.
package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ConnectionState is the live session lifecycle:
// connecting -> connected -> closed, no other transitions.
type ConnectionState string

const (
	StateConnecting ConnectionState = "connecting"
	StateConnected  ConnectionState = "connected"
	StateClosed     ConnectionState = "closed"
)

var (
	ErrNotFound = errors.New("live session not found")
	ErrClosed   = errors.New("live session is closed")
)

// LiveSession is one ephemeral realtime session. Values returned by the
// registry are detached copies.
type LiveSession struct {
	ID                string          `json:"sessionId"`
	UserID            string          `json:"userId"`
	State             ConnectionState `json:"connectionState"`
	PendingCandidates []string        `json:"pendingCandidates"`
	StartedAt         time.Time       `json:"startedAt"`
	LastActivityAt    time.Time       `json:"lastActivityAt"`
}

// Registry tracks live sessions and expires idle ones. Safe for concurrent
// use; the sweep copies expired sessions out before invoking any hook so no
// callback runs under the lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*LiveSession
	ttl      time.Duration
	onExpire func(LiveSession)
	now      func() time.Time
}

// NewRegistry creates a registry with the given idle TTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Registry{
		sessions: make(map[string]*LiveSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetExpireHook registers a callback invoked for every session the sweep
// evicts.
func (r *Registry) SetExpireHook(hook func(LiveSession)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = hook
}

// Create starts a session in connecting state, or renegotiates an existing
// open one: the session moves back to connecting and its candidate queue is
// drained and returned. Renegotiating a closed session is an error.
func (r *Registry) Create(sessionID, userID string) (LiveSession, []string, error) {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		if s.State == StateClosed {
			return LiveSession{}, nil, ErrClosed
		}
		queued := s.PendingCandidates
		s.PendingCandidates = nil
		s.State = StateConnecting
		s.LastActivityAt = now
		return clone(s), queued, nil
	}

	s := &LiveSession{
		ID:             sessionID,
		UserID:         userID,
		State:          StateConnecting,
		StartedAt:      now,
		LastActivityAt: now,
	}
	r.sessions[sessionID] = s
	return clone(s), nil, nil
}

// Connect marks the handshake as completed.
func (r *Registry) Connect(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if s.State == StateClosed {
		return ErrClosed
	}
	s.State = StateConnected
	s.LastActivityAt = r.now().UTC()
	return nil
}

// Touch bumps the session's activity timestamp.
func (r *Registry) Touch(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if s.State == StateClosed {
		return ErrClosed
	}
	s.LastActivityAt = r.now().UTC()
	return nil
}

// AppendCandidate queues one signaling fragment. Updates after close are
// rejected, not silently applied.
func (r *Registry) AppendCandidate(sessionID, candidate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if s.State == StateClosed {
		return ErrClosed
	}
	s.PendingCandidates = append(s.PendingCandidates, candidate)
	s.LastActivityAt = r.now().UTC()
	return nil
}

// Get returns a copy of the session.
func (r *Registry) Get(sessionID string) (LiveSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return LiveSession{}, ErrNotFound
	}
	return clone(s), nil
}

// Close marks a session closed. Closing an unknown or already-closed
// session is a no-op. The record stays until the sweep collects it, so late
// signaling updates are rejected as closed rather than unknown.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.State == StateClosed {
		return
	}
	s.State = StateClosed
	s.PendingCandidates = nil
	s.LastActivityAt = r.now().UTC()
}

// ActiveCount returns the number of sessions not yet closed.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, s := range r.sessions {
		if s.State != StateClosed {
			count++
		}
	}
	return count
}

// Sweep removes every session idle past the TTL and invokes the expire hook
// outside the lock for each one that was still open. Returns the number of
// open sessions expired.
func (r *Registry) Sweep() int {
	now := r.now().UTC()
	var expired []LiveSession

	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastActivityAt) <= r.ttl {
			continue
		}
		wasOpen := s.State != StateClosed
		s.State = StateClosed
		if wasOpen {
			expired = append(expired, clone(s))
		}
		delete(r.sessions, id)
	}
	hook := r.onExpire
	r.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
	return len(expired)
}

// StartJanitor runs Sweep on a fixed interval until ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

func clone(s *LiveSession) LiveSession {
	out := *s
	out.PendingCandidates = append([]string(nil), s.PendingCandidates...)
	return out
}
