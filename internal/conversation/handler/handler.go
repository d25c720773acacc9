// Package handler exposes the chat endpoint as a server-sent-event stream.
package handler

import (
	"net/http"

	"leadchat_backend/internal/conversation/service"
	"leadchat_backend/internal/conversation/transport"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the conversation module.
type Handler struct {
	orc *service.Orchestrator
	val *validator.Validator
	log *logger.Logger
}

// New creates a new conversation handler.
func New(orc *service.Orchestrator, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{orc: orc, val: val, log: log}
}

// RegisterRoutes mounts the chat route on the provided group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.Chat)
}

// Chat processes one inbound message and streams the assistant reply. The
// response is an SSE stream of JSON frames: content deltas, then one
// terminal done or error frame. Failures before the first frame map to
// plain HTTP errors instead.
func (h *Handler) Chat(c *gin.Context) {
	var req transport.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	message, ok := req.LastUserMessage()
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "last message must be a user turn", nil)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	// Quota falls back to the client IP when the token carries no user ID.
	userID := c.ClientIP()
	if id, ok := httpkit.GetUserID(c); ok {
		userID = id.String()
	}

	c.Writer.Header().Set("X-Session-ID", sessionID)

	// Stream headers go out with the first frame so pre-flight failures can
	// still answer with a plain HTTP error.
	started := false
	emit := func(frame service.Frame) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		if !started {
			c.Writer.Header().Set("Content-Type", "text/event-stream")
			c.Writer.Header().Set("Cache-Control", "no-cache")
			c.Writer.Header().Set("Connection", "keep-alive")
			c.Writer.Header().Set("X-Accel-Buffering", "no")
			started = true
		}
		c.SSEvent("message", frame)
		c.Writer.Flush()
		return nil
	}

	handleReq := service.HandleRequest{
		SessionID: sessionID,
		UserID:    userID,
		RequestID: httpkit.GetRequestID(c),
		Message:   message,
		StageHint: req.Stage,
		ModelID:   req.ModelID,
		Flags:     req.Flags,
	}

	if err := h.orc.Handle(c.Request.Context(), handleReq, emit); err != nil {
		if started {
			// Too late for an HTTP status; close with a terminal frame.
			c.SSEvent("message", service.Frame{Error: "request failed"})
			c.Writer.Flush()
			return
		}
		httpkit.HandleError(c, err)
	}
}
