// Package transport defines the wire-level DTOs for the realtime signaling
// API.
package transport

// CreateSessionRequest is the body of POST /realtime/sessions.
type CreateSessionRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	Offer     string `json:"offer" validate:"omitempty,max=16384"`
}

// CreateSessionResponse returns the simulated negotiation answer plus any
// signaling fragments queued since the last negotiation.
type CreateSessionResponse struct {
	SessionID        string   `json:"sessionId"`
	ConnectionState  string   `json:"connectionState"`
	Answer           string   `json:"answer"`
	QueuedCandidates []string `json:"queuedCandidates"`
}

// CandidateRequest is the body of PUT /realtime/sessions/:id/candidates.
type CandidateRequest struct {
	Candidate string `json:"candidate" validate:"required,max=2048"`
}

// CloseSessionResponse reports the registry size after an idempotent close.
type CloseSessionResponse struct {
	Closed      bool `json:"closed"`
	ActiveCount int  `json:"activeCount"`
}

// StatusResponse is the aggregate registry status.
type StatusResponse struct {
	ActiveSessions int  `json:"activeSessions"`
	VoiceEnabled   bool `json:"voiceEnabled"`
	VideoEnabled   bool `json:"videoEnabled"`
}
