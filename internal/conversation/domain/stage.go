// Package domain holds the conversation bounded context's core types: the
// scripted stage machine, sessions, and messages.
package domain

import "strings"

// Stage is one step in the fixed conversational script. The index is
// monotonically non-decreasing per session; the only skips allowed are
// fast-forwards over collection stages whose signal is already known.
type Stage int

const (
	StageGreeting Stage = iota
	StageNameCollection
	StageEmailCapture
	StageBackgroundResearch
	StageProblemDiscovery
	StageSolutionPresentation
	StageCallToAction
)

var stageNames = [...]string{
	"GREETING",
	"NAME_COLLECTION",
	"EMAIL_CAPTURE",
	"BACKGROUND_RESEARCH",
	"PROBLEM_DISCOVERY",
	"SOLUTION_PRESENTATION",
	"CALL_TO_ACTION",
}

// String returns the wire name of the stage.
func (s Stage) String() string {
	if s < StageGreeting || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// IsTerminal reports whether the stage is the script's absorbing state.
func (s Stage) IsTerminal() bool {
	return s == StageCallToAction
}

// ParseStage resolves a wire name back to a Stage.
func ParseStage(raw string) (Stage, bool) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for i, candidate := range stageNames {
		if candidate == name {
			return Stage(i), true
		}
	}
	return StageGreeting, false
}

// CoerceStage recovers from an unknown or corrupt stage value on a resumed
// session. Unrecognized values coerce to the nearest valid earlier stage
// (GREETING for garbage); the caller must record a warning. A corrupt value
// is never guessed forward.
func CoerceStage(raw string) (stage Stage, coerced bool) {
	if s, ok := ParseStage(raw); ok {
		return s, false
	}
	return StageGreeting, true
}

// Known is the accumulated fact set the transition table consults. It is
// derived from the lead record plus the signals of the current message, so
// re-deriving it for the same inputs always yields the same stage.
type Known struct {
	HasName           bool
	HasEmail          bool
	ResearchDone      bool
	HasProblem        bool
	SolutionPresented bool
}

// exitConditions is the explicit transition table: the session leaves a
// stage for its successor exactly when the stage's condition holds for the
// current fact set. Keeping this a table makes every transition
// independently testable.
var exitConditions = map[Stage]func(Known) bool{
	StageGreeting:             func(Known) bool { return true },
	StageNameCollection:       func(k Known) bool { return k.HasName },
	StageEmailCapture:         func(k Known) bool { return k.HasEmail },
	StageBackgroundResearch:   func(k Known) bool { return k.ResearchDone },
	StageProblemDiscovery:     func(k Known) bool { return k.HasProblem },
	StageSolutionPresentation: func(k Known) bool { return k.SolutionPresented },
}

// Next advances from current as far as the fact set allows, possibly through
// several stages in one call (the fast-forward rule: never re-ask for
// information already on file). The terminal stage absorbs everything.
func Next(current Stage, k Known) Stage {
	stage := current
	for !stage.IsTerminal() {
		exit, ok := exitConditions[stage]
		if !ok || !exit(k) {
			break
		}
		stage++
	}
	return stage
}
