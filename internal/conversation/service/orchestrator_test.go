package service

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"leadchat_backend/internal/conversation/domain"
	"leadchat_backend/internal/conversation/ports"
	"leadchat_backend/internal/conversation/repository"
	"leadchat_backend/internal/guard"
	leadrepo "leadchat_backend/internal/leads/repository"
	leadsvc "leadchat_backend/internal/leads/service"
	"leadchat_backend/platform/apperr"
)

type fakeGenerator struct {
	chunks []ports.GenerationChunk
	err    error
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Stream(ctx context.Context, _ ports.GenerationRequest) iter.Seq2[ports.GenerationChunk, error] {
	return func(yield func(ports.GenerationChunk, error) bool) {
		for _, c := range f.chunks {
			if ctx.Err() != nil {
				yield(ports.GenerationChunk{}, ctx.Err())
				return
			}
			if !yield(c, nil) {
				return
			}
		}
		if f.err != nil {
			yield(ports.GenerationChunk{}, f.err)
		}
	}
}

type frameCollector struct {
	mu     sync.Mutex
	frames []Frame
	failAt int // emit fails on the nth call (1-based); 0 never fails
	calls  int
}

func (fc *frameCollector) emit(f Frame) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.calls++
	if fc.failAt > 0 && fc.calls >= fc.failAt {
		return errors.New("client disconnected")
	}
	fc.frames = append(fc.frames, f)
	return nil
}

func (fc *frameCollector) terminalCount() (done, errCount int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, f := range fc.frames {
		if f.Done {
			done++
		}
		if f.Error != "" {
			errCount++
		}
	}
	return
}

func newTestOrchestrator(t *testing.T, gen ports.Generator, g *guard.Guard, quota *CallerQuota) (*Orchestrator, *Service) {
	t.Helper()
	leads := leadsvc.New(leadrepo.New(), nil, nil, 60, 0, nil)
	svc := New(repository.New(), leads, nil, nil, 12, nil)
	orc := NewOrchestrator(svc, gen, g, quota, nil, nil, 4000, nil)
	return orc, svc
}

func chatRequest(msg string) HandleRequest {
	return HandleRequest{SessionID: "s1", UserID: "u1", RequestID: "r1", Message: msg}
}

func TestHandleEmitsExactlyOneTerminalFrame(t *testing.T) {
	gen := &fakeGenerator{chunks: []ports.GenerationChunk{
		{Text: "Hello "},
		{Text: "Dana!"},
		{Final: true, InputTokens: 40, OutputTokens: 8},
	}}
	orc, svc := newTestOrchestrator(t, gen, nil, nil)
	fc := &frameCollector{}

	if err := orc.Handle(context.Background(), chatRequest("Hi, I'm Dana"), fc.emit); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	done, errCount := fc.terminalCount()
	if done != 1 || errCount != 0 {
		t.Fatalf("terminal frames: done=%d error=%d, want exactly one done", done, errCount)
	}

	var content string
	for _, f := range fc.frames {
		content += f.Content
	}
	if content != "Hello Dana!" {
		t.Fatalf("relayed content = %q", content)
	}

	// The reply lands in history so later stages can see it.
	sess, _ := svc.Session("s1")
	last := sess.History[len(sess.History)-1]
	if last.Role != domain.RoleAssistant || last.Content != "Hello Dana!" {
		t.Fatalf("assistant reply not persisted: %+v", last)
	}
}

func TestHandleUpstreamFailureEmitsErrorFrame(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream exploded")}
	orc, svc := newTestOrchestrator(t, gen, nil, nil)
	fc := &frameCollector{}

	if err := orc.Handle(context.Background(), chatRequest("Hi, I'm Dana"), fc.emit); err != nil {
		t.Fatalf("Handle should report mid-stream failure as a frame, got %v", err)
	}

	done, errCount := fc.terminalCount()
	if done != 0 || errCount != 1 {
		t.Fatalf("terminal frames: done=%d error=%d, want exactly one error", done, errCount)
	}

	// The stage commit from before generation is preserved.
	sess, ok := svc.Session("s1")
	if !ok || sess.Stage != domain.StageEmailCapture {
		t.Fatalf("stage = %v, commit must survive generation failure", sess.Stage)
	}
}

func TestHandleDuplicateGuardDeniesBeforeStream(t *testing.T) {
	gen := &fakeGenerator{chunks: []ports.GenerationChunk{{Text: "hi"}, {Final: true}}}
	g := guard.New(guard.NewMemoryStore(100), 10*time.Second, nil)
	orc, svc := newTestOrchestrator(t, gen, g, nil)

	fc := &frameCollector{}
	if err := orc.Handle(context.Background(), chatRequest("Hi, I'm Dana"), fc.emit); err != nil {
		t.Fatalf("first call: %v", err)
	}
	sessBefore, _ := svc.Session("s1")
	historyBefore := len(sessBefore.History)

	fc2 := &frameCollector{}
	err := orc.Handle(context.Background(), chatRequest("Hi, I'm Dana"), fc2.emit)
	if !apperr.Is(err, apperr.KindRateLimited) {
		t.Fatalf("duplicate call error = %v, want rate-limited", err)
	}
	if len(fc2.frames) != 0 {
		t.Fatal("denied call must not emit frames")
	}

	// Denial is non-destructive.
	sessAfter, _ := svc.Session("s1")
	if len(sessAfter.History) != historyBefore {
		t.Fatal("denied call must not touch session state")
	}
}

func TestHandleQuotaDenies(t *testing.T) {
	gen := &fakeGenerator{chunks: []ports.GenerationChunk{{Final: true}}}
	quota := NewCallerQuota(0, 1) // one call ever
	orc, _ := newTestOrchestrator(t, gen, nil, quota)

	fc := &frameCollector{}
	if err := orc.Handle(context.Background(), chatRequest("first message here"), fc.emit); err != nil {
		t.Fatalf("first call: %v", err)
	}
	err := orc.Handle(context.Background(), chatRequest("second message here"), fc.emit)
	if !apperr.Is(err, apperr.KindRateLimited) {
		t.Fatalf("exhausted quota error = %v, want rate-limited", err)
	}
}

func TestHandleEmptyMessageRejected(t *testing.T) {
	orc, _ := newTestOrchestrator(t, &fakeGenerator{}, nil, nil)
	err := orc.Handle(context.Background(), chatRequest("<script></script>"), (&frameCollector{}).emit)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestHandleCallerAbortStopsRelaying(t *testing.T) {
	gen := &fakeGenerator{chunks: []ports.GenerationChunk{
		{Text: "one "},
		{Text: "two "},
		{Text: "three"},
		{Final: true},
	}}
	orc, _ := newTestOrchestrator(t, gen, nil, nil)
	fc := &frameCollector{failAt: 2}

	if err := orc.Handle(context.Background(), chatRequest("Hi, I'm Dana"), fc.emit); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	done, errCount := fc.terminalCount()
	if done != 0 || errCount != 0 {
		t.Fatal("no terminal frame should reach a disconnected caller")
	}
	if len(fc.frames) != 1 {
		t.Fatalf("relayed %d frames after disconnect, want 1", len(fc.frames))
	}
}
