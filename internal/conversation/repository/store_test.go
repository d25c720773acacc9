package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadchat_backend/internal/conversation/domain"
)

func TestWithSessionCreatesAtGreeting(t *testing.T) {
	store := New()
	err := store.WithSession(context.Background(), "s1", func(s *domain.Session) error {
		if s.Stage != domain.StageGreeting {
			t.Fatalf("new session stage = %v, want GREETING", s.Stage)
		}
		if s.ID != "s1" {
			t.Fatalf("ID = %q", s.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSession: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestWithSessionSerializesSameSession(t *testing.T) {
	store := New()
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithSession(context.Background(), "s1", func(s *domain.Session) error {
				// Read-modify-write that would race without the lock.
				n := len(s.History)
				s.Append(domain.Message{Role: domain.RoleUser, Content: "hi", Timestamp: time.Now()})
				if len(s.History) != n+1 {
					t.Error("append lost under concurrency")
				}
				return nil
			})
		}()
	}
	wg.Wait()

	snap, ok := store.Snapshot("s1")
	if !ok {
		t.Fatal("session missing")
	}
	if len(snap.History) != workers {
		t.Fatalf("history length = %d, want %d", len(snap.History), workers)
	}
}

func TestWithSessionHonorsCancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.WithSession(ctx, "s1", func(*domain.Session) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if called {
		t.Fatal("fn must not run after cancellation")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	store := New()
	_ = store.WithSession(context.Background(), "s1", func(s *domain.Session) error {
		s.Append(domain.Message{Role: domain.RoleUser, Content: "original", Timestamp: time.Now()})
		return nil
	})

	snap, _ := store.Snapshot("s1")
	snap.History[0].Content = "mutated"

	again, _ := store.Snapshot("s1")
	if again.History[0].Content != "original" {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestSnapshotUnknownSession(t *testing.T) {
	store := New()
	if _, ok := store.Snapshot("nope"); ok {
		t.Fatal("unknown session should not snapshot")
	}
}
