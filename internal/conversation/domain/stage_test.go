package domain

import "testing"

func TestNext_MonotonicProgression(t *testing.T) {
	tests := []struct {
		name    string
		current Stage
		known   Known
		want    Stage
	}{
		{"greeting always advances", StageGreeting, Known{}, StageNameCollection},
		{"name collection waits for name", StageNameCollection, Known{}, StageNameCollection},
		{"name advances to email capture", StageNameCollection, Known{HasName: true}, StageEmailCapture},
		{"email capture waits for email", StageEmailCapture, Known{HasName: true}, StageEmailCapture},
		{
			"email plus research fast-forwards to problem discovery",
			StageEmailCapture,
			Known{HasName: true, HasEmail: true, ResearchDone: true},
			StageProblemDiscovery,
		},
		{
			"greeting with everything known fast-forwards past collection",
			StageGreeting,
			Known{HasName: true, HasEmail: true, ResearchDone: true},
			StageProblemDiscovery,
		},
		{"problem discovery waits for problem", StageProblemDiscovery, Known{HasName: true, HasEmail: true, ResearchDone: true}, StageProblemDiscovery},
		{
			"problem captured advances to solution",
			StageProblemDiscovery,
			Known{HasName: true, HasEmail: true, ResearchDone: true, HasProblem: true},
			StageSolutionPresentation,
		},
		{
			"presented solution advances to call to action",
			StageSolutionPresentation,
			Known{HasName: true, HasEmail: true, ResearchDone: true, HasProblem: true, SolutionPresented: true},
			StageCallToAction,
		},
		{"terminal stage absorbs", StageCallToAction, Known{HasName: true, HasEmail: true, ResearchDone: true, HasProblem: true, SolutionPresented: true}, StageCallToAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.current, tt.known)
			if got != tt.want {
				t.Fatalf("Next(%s, %+v) = %s, want %s", tt.current, tt.known, got, tt.want)
			}
			if got < tt.current {
				t.Fatalf("stage regressed from %s to %s", tt.current, got)
			}
		})
	}
}

func TestNext_NeverDecreases(t *testing.T) {
	knowns := []Known{
		{},
		{HasName: true},
		{HasEmail: true},
		{HasName: true, HasEmail: true, ResearchDone: true},
		{HasName: true, HasEmail: true, ResearchDone: true, HasProblem: true, SolutionPresented: true},
	}
	for stage := StageGreeting; stage <= StageCallToAction; stage++ {
		for _, k := range knowns {
			if got := Next(stage, k); got < stage {
				t.Fatalf("Next(%s, %+v) regressed to %s", stage, k, got)
			}
		}
	}
}

func TestNext_Idempotent(t *testing.T) {
	k := Known{HasName: true, HasEmail: true, ResearchDone: true}
	first := Next(StageGreeting, k)
	second := Next(first, k)
	if first != second {
		t.Fatalf("re-deriving with the same facts moved the stage: %s then %s", first, second)
	}
}

func TestParseStage_RoundTrip(t *testing.T) {
	for stage := StageGreeting; stage <= StageCallToAction; stage++ {
		parsed, ok := ParseStage(stage.String())
		if !ok || parsed != stage {
			t.Fatalf("round trip failed for %s", stage)
		}
	}
}

func TestCoerceStage_CorruptValues(t *testing.T) {
	for _, raw := range []string{"", "BANANA", "STAGE_99", "call_to_action "} {
		stage, coerced := CoerceStage(raw)
		if raw == "call_to_action " {
			// Trimmed, case-insensitive values still parse.
			if coerced || stage != StageCallToAction {
				t.Fatalf("expected %q to parse as CALL_TO_ACTION, got %s coerced=%v", raw, stage, coerced)
			}
			continue
		}
		if !coerced {
			t.Fatalf("expected %q to be coerced", raw)
		}
		if stage != StageGreeting {
			t.Fatalf("corrupt value %q coerced forward to %s", raw, stage)
		}
	}
}
