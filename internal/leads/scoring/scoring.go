// Package scoring computes the deterministic engagement score for a lead.
// The rubric is fixed: identical lead records always score identically, and
// adding qualifying signals never lowers the score. The only subtraction is
// the inactivity decay, applied solely across long activity gaps.
package scoring

import (
	"time"

	"leadchat_backend/internal/leads/repository"
)

const (
	// scoreVersion tracks the scoring rubric for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	nameBonus  = 10
	emailBonus = 15
	phoneBonus = 10

	// companyBonus applies when the email domain resolved to a real
	// company (not a free-mail provider).
	companyBonus       = 10
	highConfidenceBonus  = 5 // extra when the intel confidence is high
	perStageBonus      = 5
	perMessageBonus    = 1
	messageBonusCap    = 10

	// inactivityDecay is subtracted once per scoring pass when the lead has
	// been idle longer than decayAfter.
	inactivityDecay = 10
	decayAfter      = 24 * time.Hour
)

// Version returns the rubric version string.
func Version() string { return scoreVersion }

// Score recomputes the engagement score from the lead record. now is passed
// in so decay is testable.
func Score(lead repository.Lead, now time.Time) int {
	score := 0

	if lead.Name != "" {
		score += nameBonus
	}
	if lead.Email != "" {
		score += emailBonus
	}
	if lead.Phone != "" {
		score += phoneBonus
	}
	if lead.CompanyDomain != "" && lead.IndustryGuess != "" && lead.IndustryGuess != "unknown" {
		score += companyBonus
		if lead.IntelConfidence == "high" {
			score += highConfidenceBonus
		}
	}

	score += lead.MaxStage() * perStageBonus

	messages := lead.MessageCount
	if messages > messageBonusCap {
		messages = messageBonusCap
	}
	score += messages * perMessageBonus

	if !lead.LastActivityAt.IsZero() && now.Sub(lead.LastActivityAt) > decayAfter {
		score -= inactivityDecay
	}

	if score < 0 {
		score = 0
	}
	return score
}
