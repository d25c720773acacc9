package guard

import (
	"context"
	"sync"
	"time"
)

// Store abstracts the fingerprint map so the single-process in-memory
// implementation can be swapped for a shared cache (see RedisStore) without
// touching call sites. In-memory deduplication only covers one process; a
// horizontally scaled deployment needs the shared backend.
type Store interface {
	// Acquire atomically performs the read-check-write cycle: if the
	// fingerprint is absent or its entry is older than window, it records
	// now and allows; otherwise it denies and returns the remaining wait.
	Acquire(ctx context.Context, fingerprint string, window time.Duration) (allowed bool, retryAfter time.Duration, err error)

	// Delete removes a fingerprint entry. Unknown fingerprints are a no-op.
	Delete(ctx context.Context, fingerprint string) error

	// Sweep drops entries last seen before the cutoff.
	Sweep(ctx context.Context, cutoff time.Time) error

	// Len reports the number of live entries.
	Len(ctx context.Context) (int, error)
}

// MemoryStore is a bounded in-memory Store. When the map is full the single
// oldest entry by insertion order is evicted before a new one is added
// (FIFO bound, not LRU).
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]time.Time
	order    []string
	capacity int

	now func() time.Time
}

// NewMemoryStore creates a MemoryStore holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryStore{
		entries:  make(map[string]time.Time, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Acquire implements Store.
func (s *MemoryStore) Acquire(_ context.Context, fingerprint string, window time.Duration) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if lastSeen, ok := s.entries[fingerprint]; ok {
		elapsed := now.Sub(lastSeen)
		if elapsed < window {
			return false, window - elapsed, nil
		}
		// Expired entry: refresh counts as a fresh insertion.
		s.removeLocked(fingerprint)
	}

	if len(s.entries) >= s.capacity {
		s.evictOldestLocked()
	}

	s.entries[fingerprint] = now
	s.order = append(s.order, fingerprint)
	return true, 0, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(fingerprint)
	return nil
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fingerprint, lastSeen := range s.entries {
		if lastSeen.Before(cutoff) {
			s.removeLocked(fingerprint)
		}
	}
	return nil
}

// Len implements Store.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *MemoryStore) removeLocked(fingerprint string) {
	delete(s.entries, fingerprint)
	for i, key := range s.order {
		if key == fingerprint {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) evictOldestLocked() {
	// The order slice can carry keys already removed out of band; skip them.
	for len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		if _, ok := s.entries[oldest]; ok {
			delete(s.entries, oldest)
			return
		}
	}
}

// Compile-time check that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
