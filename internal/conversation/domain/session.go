package domain

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation. Immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ImageRef  string    `json:"imageRef,omitempty"`
}

// StageChange records one stage transition with its timestamp.
type StageChange struct {
	From Stage     `json:"from"`
	To   Stage     `json:"to"`
	At   time.Time `json:"at"`
}

// Session identifies one conversation. Owned exclusively by the state
// machine; all mutation happens while the store holds the session's lock.
type Session struct {
	ID             string        `json:"sessionId"`
	Stage          Stage         `json:"stage"`
	History        []Message     `json:"history"`
	StageHistory   []StageChange `json:"stageHistory"`
	CreatedAt      time.Time     `json:"createdAt"`
	LastActivityAt time.Time     `json:"lastActivityAt"`

	// LastDigest fingerprints the most recently processed inbound message so
	// a replay of the same message is a no-op rather than a double-advance.
	LastDigest string `json:"-"`

	// ProblemCaptured is set once a problem statement has been recorded
	// while the session sat in PROBLEM_DISCOVERY.
	ProblemCaptured bool `json:"-"`
}

// Append adds a message to the history and bumps activity.
func (s *Session) Append(msg Message) {
	s.History = append(s.History, msg)
	s.LastActivityAt = msg.Timestamp
}

// Tail returns the trailing n turns of history.
func (s *Session) Tail(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// AssistantSpokeAt reports whether an assistant turn exists at or after the
// given stage transition, which is how "the solution has been presented" is
// derived from session state.
func (s *Session) AssistantSpokeAt(stage Stage) bool {
	var reachedAt time.Time
	found := false
	for _, change := range s.StageHistory {
		if change.To == stage {
			reachedAt = change.At
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, msg := range s.History {
		if msg.Role == RoleAssistant && !msg.Timestamp.Before(reachedAt) {
			return true
		}
	}
	return false
}
