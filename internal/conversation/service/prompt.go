package service

import (
	"fmt"
	"os"
	"strings"

	"leadchat_backend/internal/conversation/domain"
	"leadchat_backend/internal/intel"

	"gopkg.in/yaml.v3"
)

// Playbook holds the persona and per-stage directives that steer the
// assistant. Loaded from YAML when a path is configured, otherwise the
// compiled-in defaults apply.
type Playbook struct {
	Persona string            `yaml:"persona"`
	Stages  map[string]string `yaml:"stages"`
}

// LoadPlaybook reads a playbook file and fills any missing stage directive
// from the defaults, so a partial file only overrides what it names.
func LoadPlaybook(path string) (*Playbook, error) {
	pb := DefaultPlaybook()
	if path == "" {
		return pb, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playbook: %w", err)
	}

	var loaded Playbook
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse playbook: %w", err)
	}

	if loaded.Persona != "" {
		pb.Persona = loaded.Persona
	}
	for stage, directive := range loaded.Stages {
		if _, ok := domain.ParseStage(stage); !ok {
			return nil, fmt.Errorf("playbook names unknown stage %q", stage)
		}
		if directive != "" {
			pb.Stages[stage] = directive
		}
	}
	return pb, nil
}

// DefaultPlaybook returns the compiled-in persona and stage directives.
func DefaultPlaybook() *Playbook {
	return &Playbook{
		Persona: "You are Sam, a friendly business development assistant for a software consultancy. " +
			"Keep replies short, two or three sentences, and always end with a question unless told otherwise. " +
			"Never invent facts about the visitor or their company.",
		Stages: map[string]string{
			"GREETING": "Welcome the visitor warmly and ask what brings them here today. " +
				"Do not ask for personal details yet.",
			"NAME_COLLECTION": "Ask for the visitor's first name in a casual way. " +
				"If they already gave it, thank them by name and move on naturally.",
			"EMAIL_CAPTURE": "Ask for a work email address so a colleague can follow up. " +
				"Mention it will not be shared. Do not press if they hesitate; ask once per reply.",
			"BACKGROUND_RESEARCH": "Acknowledge what you can infer about their company and confirm it in one sentence. " +
				"Do not list raw data points back at them.",
			"PROBLEM_DISCOVERY": "Ask an open question about the main problem they want to solve. " +
				"Dig one level deeper if the answer is vague.",
			"SOLUTION_PRESENTATION": "Summarize their problem in their own words and sketch how the team typically " +
				"solves it. Stay concrete, no pricing.",
			"CALL_TO_ACTION": "Invite them to book a call with the team. Offer to have someone reach out to their " +
				"email instead if they prefer. This is the final step; do not introduce new topics.",
		},
	}
}

// promptContext is the per-request data folded into the system prompt.
type promptContext struct {
	Stage    domain.Stage
	Name     string
	Email    string
	Company  string
	Intel    intel.Result
	HasIntel bool
}

// Build assembles the system prompt for one generation call: persona, the
// directive for the session's current stage, then whatever is known about
// the visitor so the model never re-asks for answered questions.
func (p *Playbook) Build(pc promptContext) string {
	var b strings.Builder
	b.WriteString(p.Persona)
	b.WriteString("\n\nCurrent objective: ")
	b.WriteString(p.Stages[pc.Stage.String()])

	known := make([]string, 0, 4)
	if pc.Name != "" {
		known = append(known, "name: "+pc.Name)
	}
	if pc.Email != "" {
		known = append(known, "email: "+pc.Email)
	}
	if pc.Company != "" {
		known = append(known, "company domain: "+pc.Company)
	}
	if pc.HasIntel && !pc.Intel.FreeMail {
		known = append(known, fmt.Sprintf("company profile: likely %s, %s employees (confidence %s)",
			pc.Intel.IndustryGuess, pc.Intel.CompanySizeEstimate, pc.Intel.Confidence))
	}
	if len(known) > 0 {
		b.WriteString("\n\nKnown about the visitor, do not ask again:\n")
		for _, line := range known {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
