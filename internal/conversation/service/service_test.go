package service

import (
	"context"
	"strings"
	"testing"

	"leadchat_backend/internal/conversation/domain"
	"leadchat_backend/internal/conversation/repository"
	leadrepo "leadchat_backend/internal/leads/repository"
	leadsvc "leadchat_backend/internal/leads/service"
)

func newStepService(t *testing.T) (*Service, *leadsvc.Service) {
	t.Helper()
	leads := leadsvc.New(leadrepo.New(), nil, nil, 60, 0, nil)
	svc := New(repository.New(), leads, nil, nil, 12, nil)
	return svc, leads
}

func TestStepQualificationScenario(t *testing.T) {
	svc, leads := newStepService(t)
	ctx := context.Background()

	// One message carrying a name satisfies greeting and name collection in
	// a single call.
	step, err := svc.Step(ctx, "s1", "Hi, I'm Dana", "")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if step.Previous != domain.StageGreeting {
		t.Fatalf("previous = %v, want GREETING", step.Previous)
	}
	if step.Stage != domain.StageEmailCapture {
		t.Fatalf("stage = %v, want EMAIL_CAPTURE", step.Stage)
	}

	lead, err := leads.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("lead should exist after name signal: %v", err)
	}
	if lead.Name != "Dana" {
		t.Fatalf("lead.Name = %q, want Dana", lead.Name)
	}
	scoreAfterName := lead.EngagementScore

	// Email plus problem language: research resolves synchronously, so the
	// stage lands on discovery. The problem phrasing does not count because
	// the session was not yet in discovery when the message arrived.
	step, err = svc.Step(ctx, "s1", "dana@acme.com, we need automation help", "")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if step.Stage != domain.StageProblemDiscovery {
		t.Fatalf("stage = %v, want PROBLEM_DISCOVERY", step.Stage)
	}

	lead, _ = leads.Get(ctx, "s1")
	if lead.Email != "dana@acme.com" {
		t.Fatalf("lead.Email = %q", lead.Email)
	}
	if lead.CompanyDomain != "acme.com" {
		t.Fatalf("lead.CompanyDomain = %q", lead.CompanyDomain)
	}
	if lead.EngagementScore <= scoreAfterName {
		t.Fatalf("score %d should exceed %d after email and domain", lead.EngagementScore, scoreAfterName)
	}
}

func TestStepReplayIsIdempotent(t *testing.T) {
	svc, leads := newStepService(t)
	ctx := context.Background()

	first, err := svc.Step(ctx, "s1", "Hi, I'm Dana", "")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	leadBefore, _ := leads.Get(ctx, "s1")

	replay, err := svc.Step(ctx, "s1", "Hi, I'm Dana", "")
	if err != nil {
		t.Fatalf("replay Step: %v", err)
	}
	if !replay.Replayed {
		t.Fatal("identical message should be flagged as a replay")
	}
	if replay.Stage != first.Stage {
		t.Fatalf("replay stage = %v, want %v", replay.Stage, first.Stage)
	}

	leadAfter, _ := leads.Get(ctx, "s1")
	if leadAfter.MessageCount != leadBefore.MessageCount {
		t.Fatal("replay must not double-apply lead updates")
	}

	sess, _ := svc.Session("s1")
	if len(sess.History) != 1 {
		t.Fatalf("history length = %d, replay must not append", len(sess.History))
	}
}

func TestStepProblemCountsOnlyInDiscovery(t *testing.T) {
	svc, _ := newStepService(t)
	ctx := context.Background()

	if _, err := svc.Step(ctx, "s1", "Hi, I'm Dana", ""); err != nil {
		t.Fatal(err)
	}
	step, err := svc.Step(ctx, "s1", "dana@acme.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if step.Stage != domain.StageProblemDiscovery {
		t.Fatalf("stage = %v, want PROBLEM_DISCOVERY", step.Stage)
	}

	// Now in discovery, a problem statement moves the session forward.
	step, err = svc.Step(ctx, "s1", "Our invoicing is completely manual and slow", "")
	if err != nil {
		t.Fatal(err)
	}
	if step.Stage != domain.StageSolutionPresentation {
		t.Fatalf("stage = %v, want SOLUTION_PRESENTATION", step.Stage)
	}
}

func TestStepTerminalStageAbsorbs(t *testing.T) {
	svc, _ := newStepService(t)
	ctx := context.Background()

	script := []string{
		"Hi, I'm Dana",
		"dana@acme.com",
		"We are struggling with manual reporting",
	}
	for _, msg := range script {
		if _, err := svc.Step(ctx, "s1", msg, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.RecordAssistantReply(ctx, "s1", "Here is how we would solve that."); err != nil {
		t.Fatal(err)
	}

	step, err := svc.Step(ctx, "s1", "Sounds good, what next?", "")
	if err != nil {
		t.Fatal(err)
	}
	if step.Stage != domain.StageCallToAction {
		t.Fatalf("stage = %v, want CALL_TO_ACTION", step.Stage)
	}

	// Terminal stage absorbs everything after.
	for _, msg := range []string{"Tell me more", "And pricing?"} {
		step, err = svc.Step(ctx, "s1", msg, "")
		if err != nil {
			t.Fatal(err)
		}
		if step.Stage != domain.StageCallToAction {
			t.Fatalf("stage = %v after %q, terminal stage must hold", step.Stage, msg)
		}
	}
}

func TestStepCoercesCorruptStageHint(t *testing.T) {
	svc, _ := newStepService(t)
	ctx := context.Background()

	step, err := svc.Step(ctx, "s1", "hello there friend", "TOTALLY_BOGUS")
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt hints fall back to the start, then greeting exits normally.
	if step.Previous != domain.StageGreeting {
		t.Fatalf("previous = %v, corrupt hint must coerce to GREETING", step.Previous)
	}
}

func TestStepPromptReflectsStageAndLead(t *testing.T) {
	svc, _ := newStepService(t)
	ctx := context.Background()

	if _, err := svc.Step(ctx, "s1", "Hi, I'm Dana", ""); err != nil {
		t.Fatal(err)
	}
	step, err := svc.Step(ctx, "s1", "dana@acme.com", "")
	if err != nil {
		t.Fatal(err)
	}

	directive := DefaultPlaybook().Stages[step.Stage.String()]
	if !containsAll(step.Prompt, directive, "Dana", "acme.com") {
		t.Fatalf("prompt missing stage directive or known facts:\n%s", step.Prompt)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
