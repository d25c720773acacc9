package service

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistryCreateConnectClose(t *testing.T) {
	r := NewRegistry(time.Minute)
	s, queued, err := r.Create("rt1", "u1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.State != StateConnecting {
		t.Fatalf("state = %q, want %q", s.State, StateConnecting)
	}
	if len(queued) != 0 {
		t.Fatalf("fresh session has %d queued candidates", len(queued))
	}

	if err := r.Connect("rt1"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	got, err := r.Get("rt1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != StateConnected {
		t.Fatalf("state = %q, want %q", got.State, StateConnected)
	}

	r.Close("rt1")
	if r.ActiveCount() != 0 {
		t.Fatalf("ActiveCount = %d after close", r.ActiveCount())
	}
	// Idempotent, including for unknown sessions.
	r.Close("rt1")
	r.Close("never-existed")
}

func TestRegistryRejectsUpdatesAfterClose(t *testing.T) {
	r := NewRegistry(time.Minute)
	if _, _, err := r.Create("rt1", "u1"); err != nil {
		t.Fatal(err)
	}
	r.Close("rt1")

	if err := r.AppendCandidate("rt1", "candidate:1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("AppendCandidate after close = %v, want ErrClosed", err)
	}
	if err := r.Touch("rt1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Touch after close = %v, want ErrClosed", err)
	}
	if err := r.Connect("rt1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Connect after close = %v, want ErrClosed", err)
	}
}

func TestRegistryUnknownSession(t *testing.T) {
	r := NewRegistry(time.Minute)
	if err := r.AppendCandidate("nope", "c"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistryRenegotiationDrainsCandidates(t *testing.T) {
	r := NewRegistry(time.Minute)
	if _, _, err := r.Create("rt1", "u1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Connect("rt1"); err != nil {
		t.Fatal(err)
	}
	for _, c := range []string{"candidate:1", "candidate:2"} {
		if err := r.AppendCandidate("rt1", c); err != nil {
			t.Fatal(err)
		}
	}

	s, queued, err := r.Create("rt1", "u1")
	if err != nil {
		t.Fatalf("renegotiation error = %v", err)
	}
	if s.State != StateConnecting {
		t.Fatalf("renegotiated state = %q, want %q", s.State, StateConnecting)
	}
	if len(queued) != 2 || queued[0] != "candidate:1" || queued[1] != "candidate:2" {
		t.Fatalf("queued = %v, want both candidates in order", queued)
	}
	if len(s.PendingCandidates) != 0 {
		t.Fatal("queue must be drained after renegotiation")
	}
}

func TestRegistrySweepExpiresIdleSessions(t *testing.T) {
	r := NewRegistry(10 * time.Minute)
	base := time.Now().UTC()
	r.now = func() time.Time { return base }

	if _, _, err := r.Create("stale", "u1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Create("fresh", "u2"); err != nil {
		t.Fatal(err)
	}

	r.now = func() time.Time { return base.Add(5 * time.Minute) }
	if err := r.Touch("fresh"); err != nil {
		t.Fatal(err)
	}

	var expired []LiveSession
	r.SetExpireHook(func(s LiveSession) { expired = append(expired, s) })

	r.now = func() time.Time { return base.Add(11 * time.Minute) }
	if n := r.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}

	if _, err := r.Get("stale"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale session should be gone, err = %v", err)
	}
	if _, err := r.Get("fresh"); err != nil {
		t.Fatalf("fresh session should survive, err = %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "stale" {
		t.Fatalf("expire hook saw %v", expired)
	}
}

func TestRegistrySweepSafeUnderConcurrency(t *testing.T) {
	r := NewRegistry(time.Nanosecond)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := string(rune('a'+n)) + "-session"
				_, _, _ = r.Create(id, "u")
				_ = r.AppendCandidate(id, "candidate")
				r.Sweep()
				r.Close(id)
			}
		}(i)
	}
	wg.Wait()
}
