package accounting

import (
	"testing"
	"time"
)

func TestRecorderAggregates(t *testing.T) {
	r := NewRecorder(16, nil)

	r.Submit(Record{SessionID: "s1", InputTokens: 100, OutputTokens: 20})
	r.Submit(Record{SessionID: "s1", InputTokens: 50, OutputTokens: 10, Failed: true})
	r.Close()

	got := r.Totals()
	if got.Calls != 2 {
		t.Fatalf("Calls = %d, want 2", got.Calls)
	}
	if got.Failures != 1 {
		t.Fatalf("Failures = %d, want 1", got.Failures)
	}
	if got.InputTokens != 150 || got.OutputTokens != 30 {
		t.Fatalf("tokens = %d/%d, want 150/30", got.InputTokens, got.OutputTokens)
	}
	if got.Dropped != 0 {
		t.Fatalf("Dropped = %d, want 0", got.Dropped)
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	// Drain loop deliberately not started so the buffer stays full.
	r := &Recorder{ch: make(chan Record, 1), done: make(chan struct{})}

	accepted := 0
	for i := 0; i < 10; i++ {
		if r.Submit(Record{SessionID: "s"}) {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d, want 1 with a buffer of 1", accepted)
	}

	go r.drain()
	r.Close()

	got := r.Totals()
	if got.Dropped != 9 {
		t.Fatalf("Dropped = %d, want 9", got.Dropped)
	}
	if got.Calls != 1 {
		t.Fatalf("Calls = %d, want 1", got.Calls)
	}
}

func TestRecorderSubmitNeverBlocks(t *testing.T) {
	r := NewRecorder(1, nil)
	defer r.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			r.Submit(Record{SessionID: "s"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked")
	}
}
