// Package signals performs best-effort extraction of identifying signals
// (name, email, phone) from sanitized chat messages. Extraction is heuristic;
// the state machine treats missing signals as "not yet known", never as an
// error.
package signals

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Signals is the extraction result for one message. Empty fields mean the
// signal was not detected.
type Signals struct {
	Name  string
	Email string
	Phone string // E.164
}

// HasAny reports whether at least one signal was detected.
func (s Signals) HasAny() bool {
	return s.Name != "" || s.Email != "" || s.Phone != ""
}

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// nameRegex matches common self-introduction phrasings and captures up
	// to two capitalized words after them. The phrase match is
	// case-insensitive; the captured name must be capitalized.
	nameRegex = regexp.MustCompile(`\b(?i:my name is|i am|i'm|im|this is|it's|call me)\s+([A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)?)`)

	// phoneCandidateRegex finds digit runs worth handing to the phone parser.
	phoneCandidateRegex = regexp.MustCompile(`\+?[0-9][0-9 ()\-.]{6,18}[0-9]`)

	// nameStopWords are words that follow introduction phrasings without
	// being names.
	nameStopWords = map[string]struct{}{
		"looking": {}, "interested": {}, "calling": {}, "writing": {},
		"here": {}, "not": {}, "just": {}, "very": {}, "really": {},
		"trying": {}, "wondering": {}, "sorry": {}, "happy": {},
	}
)

// Extract pulls signals from a single message.
func Extract(content string) Signals {
	return Signals{
		Name:  extractName(content),
		Email: ExtractEmail(content),
		Phone: extractPhone(content),
	}
}

// ExtractEmail returns the first email-like substring, lowercased.
func ExtractEmail(content string) string {
	match := emailRegex.FindString(content)
	return strings.ToLower(match)
}

// EmailDomain returns the domain part of an email address.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func extractName(content string) string {
	match := nameRegex.FindStringSubmatch(content)
	if len(match) < 2 {
		return ""
	}
	candidate := strings.TrimSpace(match[1])
	first := strings.ToLower(strings.Fields(candidate)[0])
	if _, stop := nameStopWords[first]; stop {
		return ""
	}
	return candidate
}

func extractPhone(content string) string {
	for _, candidate := range phoneCandidateRegex.FindAllString(content, -1) {
		// Region-free parse only works for +prefixed numbers; fall back to US.
		region := ""
		if !strings.HasPrefix(strings.TrimSpace(candidate), "+") {
			region = "US"
		}
		parsed, err := phonenumbers.Parse(candidate, region)
		if err != nil {
			continue
		}
		if !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}

// problemKeywords mark a message as a problem statement during discovery.
var problemKeywords = []string{
	"need", "help", "problem", "issue", "struggling", "looking for",
	"want to", "trying to", "automate", "automation", "improve", "reduce",
	"slow", "manual", "costs", "scale",
}

// IsProblemStatement reports whether a message reads like a description of
// the prospect's problem: substantial enough and containing intent language.
func IsProblemStatement(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(strings.Fields(trimmed)) < 3 {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range problemKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
