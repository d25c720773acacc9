// Package handler exposes the leads read API over HTTP.
package handler

import (
	"net/http"

	"leadchat_backend/internal/leads/service"
	"leadchat_backend/internal/leads/transport"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for lead records.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the lead routes on the provided group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads/:sessionId", h.GetLead)
}

// GetLead returns the accumulated lead record for a chat session.
func (h *Handler) GetLead(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.val.Var(sessionID, "required,max=128"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid session id", nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}
