// Package conversation provides the chat bounded context module: the
// qualification state machine and the streaming orchestrator behind the chat
// endpoint.
package conversation

import (
	"leadchat_backend/internal/conversation/handler"
	"leadchat_backend/internal/conversation/ports"
	"leadchat_backend/internal/conversation/repository"
	"leadchat_backend/internal/conversation/service"
	"leadchat_backend/internal/events"
	"leadchat_backend/internal/guard"
	apphttp "leadchat_backend/internal/http"
	leadsvc "leadchat_backend/internal/leads/service"
	"leadchat_backend/internal/observability"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"
)

// Config is the slice of application config the module needs.
type Config interface {
	config.ChatConfig
	config.GuardConfig
	config.PlaybookConfig
}

// Module is the conversation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule wires the conversation module. The generator and guard store are
// injected so the api binary decides the concrete backends.
func NewModule(gen ports.Generator, guardStore guard.Store, leads *leadsvc.Service, bus events.Bus, metrics *observability.Metrics, val *validator.Validator, cfg Config, log *logger.Logger) (*Module, error) {
	playbook, err := service.LoadPlaybook(cfg.GetPlaybookPath())
	if err != nil {
		return nil, err
	}

	sessions := repository.New()
	svc := service.New(sessions, leads, playbook, bus, cfg.GetChatHistoryTurns(), log)

	g := guard.New(guardStore, cfg.GetGuardWindow(), log)
	quota := service.NewCallerQuota(cfg.GetChatQuotaPerMinute()/60, cfg.GetChatQuotaBurst())
	orc := service.NewOrchestrator(svc, gen, g, quota, bus, metrics, cfg.GetChatMaxMessageLen(), log)

	return &Module{
		handler: handler.New(orc, val, log),
		svc:     svc,
	}, nil
}

// Name returns the module's identifier for logging purposes.
func (m *Module) Name() string { return "conversation" }

// RegisterRoutes mounts the chat routes under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}
