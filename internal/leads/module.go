// Package leads provides the lead management bounded context module.
package leads

import (
	"leadchat_backend/internal/events"
	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/internal/leads/handler"
	"leadchat_backend/internal/leads/repository"
	"leadchat_backend/internal/leads/service"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its
// dependencies. scheduler may be nil when no follow-up transport is
// configured.
func NewModule(bus events.Bus, scheduler service.FollowUpScheduler, val *validator.Validator, cfg config.LeadConfig, log *logger.Logger) *Module {
	repo := repository.New()
	svc := service.New(repo, bus, scheduler, cfg.GetFollowUpThreshold(), cfg.GetFollowUpDelay(), log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module's identifier for logging purposes.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts the lead routes under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Service exposes the lead manager to the conversation module, which feeds
// it signal updates as messages are processed.
func (m *Module) Service() *service.Service { return m.service }
