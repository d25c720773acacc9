// Package handler exposes the realtime signaling endpoints.
package handler

import (
	"errors"
	"net/http"

	"leadchat_backend/internal/realtime/service"
	"leadchat_backend/internal/realtime/transport"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the live-session registry.
type Handler struct {
	registry     *service.Registry
	val          *validator.Validator
	voiceEnabled bool
	videoEnabled bool
}

// New creates a new realtime handler.
func New(registry *service.Registry, val *validator.Validator, voiceEnabled, videoEnabled bool) *Handler {
	return &Handler{registry: registry, val: val, voiceEnabled: voiceEnabled, videoEnabled: videoEnabled}
}

// RegisterRoutes mounts the signaling routes on the provided group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/realtime/sessions")
	sessions.POST("", h.CreateSession)
	sessions.PUT("/:id/candidates", h.AppendCandidate)
	sessions.DELETE("/:id", h.CloseSession)
	sessions.GET("/status", h.Status)
}

// CreateSession starts or renegotiates a live session and returns a
// simulated negotiation answer plus any queued signaling fragments.
func (h *Handler) CreateSession(c *gin.Context) {
	var req transport.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userID := ""
	if id, ok := httpkit.GetUserID(c); ok {
		userID = id.String()
	}

	sess, queued, err := h.registry.Create(sessionID, userID)
	if errors.Is(err, service.ErrClosed) {
		httpkit.Error(c, http.StatusConflict, "session is closed", nil)
		return
	}
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if queued == nil {
		queued = []string{}
	}

	httpkit.OK(c, transport.CreateSessionResponse{
		SessionID:        sess.ID,
		ConnectionState:  string(sess.State),
		Answer:           service.SimulatedAnswer(sess.ID, req.Offer),
		QueuedCandidates: queued,
	})
}

// AppendCandidate queues one signaling fragment on an existing session.
func (h *Handler) AppendCandidate(c *gin.Context) {
	var req transport.CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	err := h.registry.AppendCandidate(c.Param("id"), req.Candidate)
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpkit.Error(c, http.StatusNotFound, "unknown session", nil)
	case errors.Is(err, service.ErrClosed):
		httpkit.Error(c, http.StatusConflict, "session is closed", nil)
	case err != nil:
		httpkit.HandleError(c, err)
	default:
		httpkit.OK(c, gin.H{"queued": true})
	}
}

// CloseSession closes a session. Always succeeds, including for unknown
// sessions.
func (h *Handler) CloseSession(c *gin.Context) {
	h.registry.Close(c.Param("id"))
	httpkit.OK(c, transport.CloseSessionResponse{
		Closed:      true,
		ActiveCount: h.registry.ActiveCount(),
	})
}

// Status returns aggregate registry state with no side effects.
func (h *Handler) Status(c *gin.Context) {
	httpkit.OK(c, transport.StatusResponse{
		ActiveSessions: h.registry.ActiveCount(),
		VoiceEnabled:   h.voiceEnabled,
		VideoEnabled:   h.videoEnabled,
	})
}
