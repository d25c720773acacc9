package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"leadchat_backend/internal/conversation/ports"
	"leadchat_backend/internal/events"
	"leadchat_backend/internal/guard"
	"leadchat_backend/internal/observability"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/sanitize"

	"golang.org/x/time/rate"
)

// Frame is one event of the chat response stream. Exactly one terminal
// frame (Done or Error set) closes every stream.
type Frame struct {
	Content      string `json:"content,omitempty"`
	Done         bool   `json:"done,omitempty"`
	Error        string `json:"error,omitempty"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`
	Stage        string `json:"stage,omitempty"`
}

// EmitFunc delivers one frame to the caller. A returned error means the
// caller is gone and relaying should stop.
type EmitFunc func(Frame) error

// HandleRequest carries one inbound chat message through the orchestrator.
type HandleRequest struct {
	SessionID string
	UserID    string
	RequestID string
	Message   string
	StageHint string
	ModelID   string
	Flags     []string
}

// CallerQuota is a per-caller token bucket. Independent of the duplicate
// guard: the quota bounds overall call volume, the guard suppresses repeats.
type CallerQuota struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

// NewCallerQuota creates a quota of r calls per second with the given burst.
func NewCallerQuota(r float64, burst int) *CallerQuota {
	if burst <= 0 {
		burst = 1
	}
	return &CallerQuota{rate: rate.Limit(r), burst: burst}
}

// Allow reports whether the caller may make another generation call now.
func (q *CallerQuota) Allow(callerID string) bool {
	v, ok := q.limiters.Load(callerID)
	if !ok {
		v, _ = q.limiters.LoadOrStore(callerID, rate.NewLimiter(q.rate, q.burst))
	}
	return v.(*rate.Limiter).Allow()
}

// Orchestrator runs the full chat request pipeline: quota and duplicate
// checks, sanitization, the state machine step, streaming generation, and
// async usage accounting.
type Orchestrator struct {
	svc       *Service
	gen       ports.Generator
	guard     *guard.Guard
	quota     *CallerQuota
	bus       events.Bus
	metrics   *observability.Metrics
	log       *logger.Logger
	maxMsgLen int
	now       func() time.Time
}

// NewOrchestrator wires the orchestrator. metrics may be nil.
func NewOrchestrator(svc *Service, gen ports.Generator, g *guard.Guard, quota *CallerQuota, bus events.Bus, metrics *observability.Metrics, maxMsgLen int, log *logger.Logger) *Orchestrator {
	if maxMsgLen <= 0 {
		maxMsgLen = 4000
	}
	return &Orchestrator{
		svc:       svc,
		gen:       gen,
		guard:     g,
		quota:     quota,
		bus:       bus,
		metrics:   metrics,
		log:       log,
		maxMsgLen: maxMsgLen,
		now:       time.Now,
	}
}

// Handle processes one chat message. Pre-flight failures (quota, duplicate
// guard, validation) return an error before any frame is emitted and leave
// session and lead state untouched. Once streaming starts, every outcome is
// reported as exactly one terminal frame and Handle returns nil.
func (o *Orchestrator) Handle(ctx context.Context, req HandleRequest, emit EmitFunc) error {
	if o.quota != nil && !o.quota.Allow(req.UserID) {
		if o.log != nil {
			o.log.RateLimitExceeded(req.UserID, "chat")
		}
		return apperr.RateLimited("too many requests", 0)
	}

	message := sanitize.Message(req.Message, o.maxMsgLen)
	if message == "" {
		return apperr.Validation("message is empty after sanitization")
	}

	if o.guard != nil {
		fp := guard.Fingerprint(message, req.Flags, req.ModelID)
		decision := o.guard.ShouldAllow(ctx, fp)
		if !decision.Allowed {
			o.metrics.CountGuard("denied")
			if o.log != nil {
				o.log.DuplicateSuppressed(fp, decision.RetryAfterMs())
			}
			return apperr.RateLimited("duplicate request suppressed", decision.RetryAfterMs())
		}
		o.metrics.CountGuard("allowed")
	}

	// The transition commits here, before generation; a generation failure
	// later never rolls it back.
	step, err := o.svc.Step(ctx, req.SessionID, message, req.StageHint)
	if err != nil {
		return err
	}
	if step.Stage != step.Previous {
		o.metrics.CountStage(step.Stage.String())
	}

	o.stream(ctx, req, step, message, emit)
	return nil
}

func (o *Orchestrator) stream(ctx context.Context, req HandleRequest, step StepResult, message string, emit EmitFunc) {
	start := o.now()
	genReq := ports.GenerationRequest{
		SessionID:    req.SessionID,
		SystemPrompt: step.Prompt,
		History:      step.History,
		UserMessage:  message,
	}

	var (
		reply      strings.Builder
		firstDelta time.Time
		usageIn    int
		usageOut   int
		callerGone bool
		streamErr  error
	)

	for chunk, err := range o.gen.Stream(ctx, genReq) {
		if err != nil {
			streamErr = err
			break
		}
		if chunk.Text != "" {
			if firstDelta.IsZero() {
				firstDelta = o.now()
				o.metrics.ObserveFirstDelta(firstDelta.Sub(start))
			}
			reply.WriteString(chunk.Text)
			if emitErr := emit(Frame{Content: chunk.Text}); emitErr != nil {
				callerGone = true
				break
			}
		}
		if chunk.Final {
			usageIn = chunk.InputTokens
			usageOut = chunk.OutputTokens
		}
	}

	failed := streamErr != nil
	if ctx.Err() != nil {
		// Caller abort: stop relaying, keep what was already sent.
		callerGone = true
	}

	if reply.Len() > 0 {
		persistCtx := context.WithoutCancel(ctx)
		if err := o.svc.RecordAssistantReply(persistCtx, req.SessionID, reply.String()); err != nil && o.log != nil {
			o.log.Error("failed to persist assistant reply", "session_id", req.SessionID, "error", err)
		}
	}

	o.account(ctx, req, usageIn, usageOut, o.now().Sub(start), failed)

	if callerGone {
		return
	}

	if failed {
		if o.log != nil {
			o.log.GenerationError(req.SessionID, streamErr)
		}
		o.metrics.CountTerminal("error")
		_ = emit(Frame{Error: "generation failed"})
		return
	}

	o.metrics.CountTerminal("done")
	_ = emit(Frame{Done: true, Stage: step.Stage.String()})
}

// account publishes usage on the bus; handlers run async so a slow or
// failing consumer never stalls the stream.
func (o *Orchestrator) account(ctx context.Context, req HandleRequest, in, out int, elapsed time.Duration, failed bool) {
	o.metrics.CountTokens(in, out)
	if o.bus == nil {
		return
	}
	o.bus.Publish(context.WithoutCancel(ctx), events.GenerationUsage{
		BaseEvent:    events.NewBaseEvent(),
		SessionID:    req.SessionID,
		RequestID:    req.RequestID,
		Model:        req.ModelID,
		InputTokens:  in,
		OutputTokens: out,
		DurationMs:   elapsed.Milliseconds(),
		Failed:       failed,
	})
}
