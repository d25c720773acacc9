// Package accounting records generation usage asynchronously so a slow sink
// can never stall the chat stream.
package accounting

import (
	"context"
	"sync"
	"sync/atomic"

	"leadchat_backend/internal/events"
	"leadchat_backend/platform/logger"
)

// Record is one accounted generation call.
type Record struct {
	SessionID    string
	RequestID    string
	Model        string
	InputTokens  int
	OutputTokens int
	DurationMs   int64
	Failed       bool
}

// Totals aggregates all accepted records.
type Totals struct {
	Calls        int64
	Failures     int64
	InputTokens  int64
	OutputTokens int64
	Dropped      int64
}

// Recorder drains usage records from a bounded buffer on a background
// goroutine. Submitting to a full buffer drops the record and counts the
// drop instead of blocking the caller.
type Recorder struct {
	ch      chan Record
	log     *logger.Logger
	dropped atomic.Int64

	mu     sync.Mutex
	totals Totals

	done chan struct{}
	once sync.Once
}

// NewRecorder creates a recorder with the given buffer size and starts its
// drain loop.
func NewRecorder(buffer int, log *logger.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Recorder{
		ch:   make(chan Record, buffer),
		log:  log,
		done: make(chan struct{}),
	}
	go r.drain()
	return r
}

// Submit accepts one record without blocking. Returns false when the buffer
// was full and the record was dropped.
func (r *Recorder) Submit(rec Record) bool {
	select {
	case r.ch <- rec:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Totals returns a copy of the running aggregates.
func (r *Recorder) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.totals
	t.Dropped = r.dropped.Load()
	return t
}

// Close stops the drain loop after the buffer empties.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.ch) })
	<-r.done
}

func (r *Recorder) drain() {
	defer close(r.done)
	for rec := range r.ch {
		r.mu.Lock()
		r.totals.Calls++
		if rec.Failed {
			r.totals.Failures++
		}
		r.totals.InputTokens += int64(rec.InputTokens)
		r.totals.OutputTokens += int64(rec.OutputTokens)
		r.mu.Unlock()

		if r.log != nil {
			r.log.Info("generation usage",
				"session_id", rec.SessionID,
				"request_id", rec.RequestID,
				"model", rec.Model,
				"input_tokens", rec.InputTokens,
				"output_tokens", rec.OutputTokens,
				"duration_ms", rec.DurationMs,
				"failed", rec.Failed,
			)
		}
	}
}

// SubscribeTo wires the recorder to generation usage events on the bus.
func (r *Recorder) SubscribeTo(bus events.Bus) {
	bus.Subscribe(events.GenerationUsage{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.GenerationUsage)
		if !ok {
			return nil
		}
		r.Submit(Record{
			SessionID:    e.SessionID,
			RequestID:    e.RequestID,
			Model:        e.Model,
			InputTokens:  e.InputTokens,
			OutputTokens: e.OutputTokens,
			DurationMs:   e.DurationMs,
			Failed:       e.Failed,
		})
		return nil
	}))
}
