package scoring

import (
	"testing"
	"time"

	"leadchat_backend/internal/leads/repository"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func baseLead() repository.Lead {
	return repository.Lead{
		SessionID:      "s1",
		LastActivityAt: now,
	}
}

func TestScore_Monotonicity(t *testing.T) {
	lead := baseLead()
	prev := Score(lead, now)

	steps := []func(*repository.Lead){
		func(l *repository.Lead) { l.Name = "Dana" },
		func(l *repository.Lead) { l.Email = "dana@acme.com" },
		func(l *repository.Lead) {
			l.CompanyDomain = "acme.com"
			l.IndustryGuess = "technology"
			l.IntelConfidence = "high"
		},
		func(l *repository.Lead) { l.Phone = "+14155552671" },
		func(l *repository.Lead) {
			l.StageHistory = append(l.StageHistory, repository.StageVisit{Stage: "PROBLEM_DISCOVERY", At: now})
		},
		func(l *repository.Lead) { l.MessageCount = 5 },
	}

	for i, step := range steps {
		step(&lead)
		got := Score(lead, now)
		if got < prev {
			t.Fatalf("step %d lowered score from %d to %d", i, prev, got)
		}
		prev = got
	}
}

func TestScore_Deterministic(t *testing.T) {
	lead := baseLead()
	lead.Name = "Dana"
	lead.Email = "dana@acme.com"
	lead.MessageCount = 3

	if Score(lead, now) != Score(lead, now) {
		t.Fatalf("identical leads scored differently")
	}
}

func TestScore_EmailAndCompanyBonus(t *testing.T) {
	lead := baseLead()
	withoutEmail := Score(lead, now)

	lead.Email = "dana@acme.com"
	lead.CompanyDomain = "acme.com"
	lead.IndustryGuess = "technology"
	lead.IntelConfidence = "high"
	withEmail := Score(lead, now)

	// email (15) + company (10) + high confidence (5)
	if withEmail-withoutEmail != 30 {
		t.Fatalf("expected email+domain bonus of 30, got %d", withEmail-withoutEmail)
	}
}

func TestScore_MessageBonusCapped(t *testing.T) {
	lead := baseLead()
	lead.MessageCount = 10
	capped := Score(lead, now)

	lead.MessageCount = 200
	if Score(lead, now) != capped {
		t.Fatalf("message bonus exceeded its cap")
	}
}

func TestScore_InactivityDecay(t *testing.T) {
	lead := baseLead()
	lead.Name = "Dana"
	lead.Email = "dana@acme.com"

	fresh := Score(lead, now)
	stale := Score(lead, now.Add(25*time.Hour))

	if stale != fresh-10 {
		t.Fatalf("expected decay of 10 after a day idle, got fresh=%d stale=%d", fresh, stale)
	}

	// Decay never takes the score below zero.
	empty := baseLead()
	if got := Score(empty, now.Add(48*time.Hour)); got != 0 {
		t.Fatalf("expected floor of 0, got %d", got)
	}
}

func TestScore_UnknownIndustryEarnsNoCompanyBonus(t *testing.T) {
	lead := baseLead()
	lead.CompanyDomain = "gmail.com"
	lead.IndustryGuess = "unknown"

	if got := Score(lead, now); got != 0 {
		t.Fatalf("expected no company bonus for unknown industry, got %d", got)
	}
}
