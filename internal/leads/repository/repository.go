// Package repository holds the in-memory lead store. Lead records live for
// the lifetime of the process; this subsystem never deletes them (deletion
// belongs to an external collaborator).
package repository

import (
	"sync"
	"time"
)

// StageVisit records one stage transition on the lead's timeline.
type StageVisit struct {
	Stage string    `json:"stage"`
	At    time.Time `json:"at"`
}

// Lead is the accumulated business-contact record for one session.
type Lead struct {
	SessionID           string       `json:"sessionId"`
	Name                string       `json:"name,omitempty"`
	Email               string       `json:"email,omitempty"`
	Phone               string       `json:"phone,omitempty"`
	CompanyDomain       string       `json:"companyDomain,omitempty"`
	CompanySizeEstimate string       `json:"companySizeEstimate,omitempty"`
	IndustryGuess       string       `json:"industryGuess,omitempty"`
	IntelConfidence     string       `json:"intelConfidence,omitempty"`
	EngagementScore     int          `json:"engagementScore"`
	StageHistory        []StageVisit `json:"stageHistory"`
	FollowUpScheduled   bool         `json:"followUpScheduled"`
	MessageCount        int          `json:"messageCount"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
	LastActivityAt      time.Time    `json:"lastActivityAt"`
}

// MaxStage returns the highest stage index the lead has reached.
func (l *Lead) MaxStage() int {
	max := 0
	for i := range l.StageHistory {
		if idx := stageIndex(l.StageHistory[i].Stage); idx > max {
			max = idx
		}
	}
	return max
}

var stageOrder = []string{
	"GREETING",
	"NAME_COLLECTION",
	"EMAIL_CAPTURE",
	"BACKGROUND_RESEARCH",
	"PROBLEM_DISCOVERY",
	"SOLUTION_PRESENTATION",
	"CALL_TO_ACTION",
}

func stageIndex(name string) int {
	for i, candidate := range stageOrder {
		if candidate == name {
			return i
		}
	}
	return 0
}

// Store is the process-local lead store. Reads return copies; mutation goes
// through Update so callers never hold references into the map.
type Store struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// New creates an empty lead store.
func New() *Store {
	return &Store{leads: make(map[string]*Lead)}
}

// Get returns a copy of the lead for a session.
func (s *Store) Get(sessionID string) (Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[sessionID]
	if !ok {
		return Lead{}, false
	}
	return clone(lead), true
}

// Update runs fn against the lead for sessionID, creating the record first
// if needed. The closure runs under the store lock, which is what makes the
// read-modify-write cycles (score recompute, follow-up flip) atomic.
func (s *Store) Update(sessionID string, fn func(*Lead)) Lead {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[sessionID]
	if !ok {
		now := time.Now().UTC()
		lead = &Lead{
			SessionID:      sessionID,
			CreatedAt:      now,
			LastActivityAt: now,
		}
		s.leads[sessionID] = lead
	}

	fn(lead)
	lead.UpdatedAt = time.Now().UTC()
	return clone(lead)
}

// Count returns the number of lead records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

func clone(lead *Lead) Lead {
	out := *lead
	out.StageHistory = make([]StageVisit, len(lead.StageHistory))
	copy(out.StageHistory, lead.StageHistory)
	return out
}
