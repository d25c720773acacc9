package events

import "time"

// StageAdvanced is published when a conversation session moves to a later
// stage of the qualification script.
type StageAdvanced struct {
	BaseEvent
	SessionID string
	From      string
	To        string
}

// EventName implements Event.
func (StageAdvanced) EventName() string { return "conversation.stage_advanced" }

// LeadQualified is published exactly once per lead, when its engagement
// score first crosses the follow-up threshold.
type LeadQualified struct {
	BaseEvent
	SessionID string
	Name      string
	Email     string
	Score     int
}

// EventName implements Event.
func (LeadQualified) EventName() string { return "leads.qualified" }

// GenerationUsage records the estimated input/output size of one generation
// call, successful or not. Consumed by the accounting recorder.
type GenerationUsage struct {
	BaseEvent
	SessionID    string
	RequestID    string
	Model        string
	InputTokens  int
	OutputTokens int
	DurationMs   int64
	Failed       bool
}

// EventName implements Event.
func (GenerationUsage) EventName() string { return "generation.usage" }

// LiveSessionExpired is published when the realtime sweep evicts an idle
// live session.
type LiveSessionExpired struct {
	BaseEvent
	SessionID string
	UserID    string
	IdleFor   time.Duration
}

// EventName implements Event.
func (LiveSessionExpired) EventName() string { return "realtime.session_expired" }
