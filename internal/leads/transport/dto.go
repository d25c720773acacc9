// Package transport defines the wire-level DTOs for the leads API.
package transport

import (
	"time"

	"leadchat_backend/internal/leads/repository"
)

// StageVisit is one entry of the lead's stage timeline.
type StageVisit struct {
	Stage string    `json:"stage"`
	At    time.Time `json:"at"`
}

// LeadResponse is the read model returned by GET /leads/:sessionId.
type LeadResponse struct {
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

// ToLeadResponse maps a lead record to its wire representation.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	history := make([]StageVisit, 0, len(lead.StageHistory))
	for _, v := range lead.StageHistory {
		history = append(history, StageVisit{Stage: v.Stage, At: v.At})
	}
	return LeadResponse{
		SessionID:           lead.SessionID,
		Name:                lead.Name,
		Email:               lead.Email,
		Phone:               lead.Phone,
		CompanyDomain:       lead.CompanyDomain,
		CompanySizeEstimate: lead.CompanySizeEstimate,
		IndustryGuess:       lead.IndustryGuess,
		IntelConfidence:     lead.IntelConfidence,
		EngagementScore:     lead.EngagementScore,
		StageHistory:        history,
		FollowUpScheduled:   lead.FollowUpScheduled,
		MessageCount:        lead.MessageCount,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
		LastActivityAt:      lead.LastActivityAt,
	}
}
