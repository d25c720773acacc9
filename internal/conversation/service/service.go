// Package service implements the conversation state machine and the
// streaming response orchestrator built on top of it.
package service

import (
	"context"
	"fmt"
	"time"

	"leadchat_backend/internal/conversation/domain"
	"leadchat_backend/internal/conversation/ports"
	"leadchat_backend/internal/conversation/repository"
	"leadchat_backend/internal/conversation/signals"
	"leadchat_backend/internal/events"
	"leadchat_backend/internal/intel"
	leadrepo "leadchat_backend/internal/leads/repository"
	leadsvc "leadchat_backend/internal/leads/service"
	"leadchat_backend/platform/logger"

	"github.com/cespare/xxhash/v2"
)

// StepResult is the outcome of one state machine step: the committed stage,
// the prompt to generate against, and the history to hand to the generator.
type StepResult struct {
	Stage    domain.Stage
	Previous domain.Stage
	Replayed bool
	Prompt   string
	History  []ports.Turn
}

// Service drives conversation sessions through the qualification script and
// feeds derived signals into the lead manager.
type Service struct {
	sessions     *repository.Store
	leads        *leadsvc.Service
	playbook     *Playbook
	bus          events.Bus
	log          *logger.Logger
	historyTurns int
	now          func() time.Time
}

// New creates the conversation service.
func New(sessions *repository.Store, leads *leadsvc.Service, playbook *Playbook, bus events.Bus, historyTurns int, log *logger.Logger) *Service {
	if historyTurns <= 0 {
		historyTurns = 12
	}
	if playbook == nil {
		playbook = DefaultPlaybook()
	}
	return &Service{
		sessions:     sessions,
		leads:        leads,
		playbook:     playbook,
		bus:          bus,
		log:          log,
		historyTurns: historyTurns,
		now:          time.Now,
	}
}

// messageDigest fingerprints one inbound message for replay detection.
func messageDigest(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// Step advances the session for one sanitized inbound message and commits
// the transition before returning. stageHint is an optional client-supplied
// stage for resumed sessions; corrupt values coerce backwards, never
// forwards. Reprocessing the identical message is a no-op on state.
func (s *Service) Step(ctx context.Context, sessionID, message, stageHint string) (StepResult, error) {
	var result StepResult
	now := s.now().UTC()
	digest := messageDigest(message)

	err := s.sessions.WithSession(ctx, sessionID, func(sess *domain.Session) error {
		if stageHint != "" && len(sess.History) == 0 {
			stage, coerced := domain.CoerceStage(stageHint)
			if coerced && s.log != nil {
				s.log.StageCoerced(sessionID, stageHint, stage.String())
			}
			sess.Stage = stage
		}

		if digest == sess.LastDigest {
			result = StepResult{
				Stage:    sess.Stage,
				Previous: sess.Stage,
				Replayed: true,
				History:  historyTurns(sess, s.historyTurns),
			}
			result.Prompt = s.buildPrompt(sessionID, sess.Stage)
			return nil
		}

		previous := sess.Stage
		sig := signals.Extract(message)

		if previous == domain.StageProblemDiscovery && signals.IsProblemStatement(message) {
			sess.ProblemCaptured = true
		}

		lead := s.applySignals(ctx, sessionID, sig, now)

		known := domain.Known{
			HasName:           lead.Name != "",
			HasEmail:          lead.Email != "",
			ResearchDone:      lead.Email != "",
			HasProblem:        sess.ProblemCaptured,
			SolutionPresented: sess.AssistantSpokeAt(domain.StageSolutionPresentation),
		}

		next := domain.Next(previous, known)
		if next != previous {
			sess.StageHistory = append(sess.StageHistory, domain.StageChange{From: previous, To: next, At: now})
			sess.Stage = next
			if s.log != nil {
				s.log.StageTransition(sessionID, previous.String(), next.String())
			}
			if s.bus != nil {
				s.bus.Publish(ctx, events.StageAdvanced{
					BaseEvent: events.NewBaseEvent(),
					SessionID: sessionID,
					From:      previous.String(),
					To:        next.String(),
				})
			}
			if s.leads.Has(sessionID) {
				s.leads.Apply(ctx, sessionID, leadsvc.Update{Stage: next.String()})
			}
		}

		// Generator context is the history before this message; the message
		// itself travels separately in the request.
		result = StepResult{
			Stage:    next,
			Previous: previous,
			History:  historyTurns(sess, s.historyTurns),
		}

		sess.Append(domain.Message{Role: domain.RoleUser, Content: message, Timestamp: now})
		sess.LastDigest = digest

		result.Prompt = s.buildPrompt(sessionID, next)
		return nil
	})
	if err != nil {
		return StepResult{}, err
	}
	return result, nil
}

// RecordAssistantReply appends the generated reply to the session history.
// Solution presentation counts as delivered only once this lands.
func (s *Service) RecordAssistantReply(ctx context.Context, sessionID, content string) error {
	if content == "" {
		return nil
	}
	now := s.now().UTC()
	err := s.sessions.WithSession(ctx, sessionID, func(sess *domain.Session) error {
		sess.Append(domain.Message{Role: domain.RoleAssistant, Content: content, Timestamp: now})
		return nil
	})
	return err
}

// Session returns a detached copy of the session state.
func (s *Service) Session(sessionID string) (domain.Session, bool) {
	return s.sessions.Snapshot(sessionID)
}

func (s *Service) applySignals(ctx context.Context, sessionID string, sig signals.Signals, now time.Time) leadrepo.Lead {
	// A lead record comes into being on the first identifying signal; until
	// then messages accrue only on the session.
	if !sig.HasAny() && !s.leads.Has(sessionID) {
		return leadrepo.Lead{}
	}

	upd := leadsvc.Update{
		Name:      sig.Name,
		Email:     sig.Email,
		Phone:     sig.Phone,
		MessageAt: now,
	}
	if sig.Email != "" {
		if dom := signals.EmailDomain(sig.Email); dom != "" {
			res := intel.Resolve(dom)
			upd.CompanyDomain = dom
			upd.CompanySizeEstimate = res.CompanySizeEstimate
			upd.IndustryGuess = res.IndustryGuess
			upd.IntelConfidence = res.Confidence
		}
	}
	return s.leads.Apply(ctx, sessionID, upd)
}

func (s *Service) buildPrompt(sessionID string, stage domain.Stage) string {
	pc := promptContext{Stage: stage}
	if lead, err := s.leads.Get(context.Background(), sessionID); err == nil {
		pc.Name = lead.Name
		pc.Email = lead.Email
		pc.Company = lead.CompanyDomain
		if lead.CompanyDomain != "" {
			pc.Intel = intel.Resolve(lead.CompanyDomain)
			pc.HasIntel = true
		}
	}
	return s.playbook.Build(pc)
}

func historyTurns(sess *domain.Session, n int) []ports.Turn {
	tail := sess.Tail(n)
	turns := make([]ports.Turn, 0, len(tail))
	for _, msg := range tail {
		turns = append(turns, ports.Turn{Role: string(msg.Role), Content: msg.Content})
	}
	return turns
}
