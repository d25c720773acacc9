// Package service implements the lead manager: incremental merging of
// derived lead updates, score recomputation, and the at-most-once follow-up
// flip.
package service

import (
	"context"
	"time"

	"leadchat_backend/internal/events"
	"leadchat_backend/internal/leads/repository"
	"leadchat_backend/internal/leads/scoring"
	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/logger"
)

// FollowUpScheduler schedules the external follow-up side effect. The lead
// manager only guarantees the at-most-once flip, not delivery.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, sessionID, name, email string, runAt time.Time) error
}

// Update is the set of derived lead fields from one processed message.
// Empty fields are "no new information", never "clear this field".
type Update struct {
	Name                string
	Email               string
	Phone               string
	CompanyDomain       string
	CompanySizeEstimate string
	IndustryGuess       string
	IntelConfidence     string
	Stage               string
	MessageAt           time.Time
}

// Service is the lead manager.
type Service struct {
	repo      *repository.Store
	bus       events.Bus
	scheduler FollowUpScheduler
	log       *logger.Logger
	threshold int
	delay     time.Duration
	now       func() time.Time
}

// New creates the lead manager. scheduler may be nil when no follow-up
// transport is configured; the flip still happens and the event still fires.
func New(repo *repository.Store, bus events.Bus, scheduler FollowUpScheduler, threshold int, delay time.Duration, log *logger.Logger) *Service {
	if threshold <= 0 {
		threshold = 60
	}
	return &Service{
		repo:      repo,
		bus:       bus,
		scheduler: scheduler,
		log:       log,
		threshold: threshold,
		delay:     delay,
		now:       time.Now,
	}
}

// Has reports whether a lead record exists for the session.
func (s *Service) Has(sessionID string) bool {
	_, ok := s.repo.Get(sessionID)
	return ok
}

// Get returns the lead for a session.
func (s *Service) Get(_ context.Context, sessionID string) (repository.Lead, error) {
	lead, ok := s.repo.Get(sessionID)
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

// Apply merges an update into the session's lead, recomputes the score, and
// performs the follow-up flip when the threshold is first crossed. Non-empty
// known fields are never overwritten by emptier or lower-confidence data.
func (s *Service) Apply(ctx context.Context, sessionID string, upd Update) repository.Lead {
	now := s.now().UTC()
	flipped := false

	lead := s.repo.Update(sessionID, func(l *repository.Lead) {
		mergeIdentity(l, upd)
		mergeIntel(l, upd)

		if upd.Stage != "" {
			last := ""
			if n := len(l.StageHistory); n > 0 {
				last = l.StageHistory[n-1].Stage
			}
			if upd.Stage != last {
				l.StageHistory = append(l.StageHistory, repository.StageVisit{Stage: upd.Stage, At: now})
			}
		}

		if !upd.MessageAt.IsZero() {
			l.MessageCount++
			l.LastActivityAt = upd.MessageAt
		}

		score := scoring.Score(*l, now)
		// Monotone within a session: decay only shows up after real
		// inactivity gaps, which recompute on the next activity anyway.
		l.EngagementScore = score

		if !l.FollowUpScheduled && score >= s.threshold {
			l.FollowUpScheduled = true
			flipped = true
		}
	})

	if flipped {
		s.onQualified(ctx, lead)
	}

	return lead
}

func (s *Service) onQualified(ctx context.Context, lead repository.Lead) {
	if s.log != nil {
		s.log.Info("lead qualified",
			"session_id", lead.SessionID,
			"score", lead.EngagementScore,
			"rubric", scoring.Version(),
		)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadQualified{
			BaseEvent: events.NewBaseEvent(),
			SessionID: lead.SessionID,
			Name:      lead.Name,
			Email:     lead.Email,
			Score:     lead.EngagementScore,
		})
	}

	if s.scheduler != nil && lead.Email != "" {
		runAt := s.now().Add(s.delay)
		if err := s.scheduler.ScheduleFollowUp(ctx, lead.SessionID, lead.Name, lead.Email, runAt); err != nil && s.log != nil {
			// The flip stays committed; delivery is best-effort.
			s.log.Error("failed to schedule follow-up", "session_id", lead.SessionID, "error", err)
		}
	}
}

func mergeIdentity(l *repository.Lead, upd Update) {
	if l.Name == "" && upd.Name != "" {
		l.Name = upd.Name
	}
	if l.Email == "" && upd.Email != "" {
		l.Email = upd.Email
	}
	if l.Phone == "" && upd.Phone != "" {
		l.Phone = upd.Phone
	}
	if l.CompanyDomain == "" && upd.CompanyDomain != "" {
		l.CompanyDomain = upd.CompanyDomain
	}
}

var confidenceRank = map[string]int{"": 0, "low": 1, "medium": 2, "high": 3}

func mergeIntel(l *repository.Lead, upd Update) {
	if upd.IntelConfidence == "" {
		return
	}
	if confidenceRank[upd.IntelConfidence] < confidenceRank[l.IntelConfidence] {
		return
	}
	if upd.CompanySizeEstimate != "" {
		l.CompanySizeEstimate = upd.CompanySizeEstimate
	}
	if upd.IndustryGuess != "" {
		l.IndustryGuess = upd.IndustryGuess
	}
	l.IntelConfidence = upd.IntelConfidence
}
