// Package realtime provides the ephemeral live-session registry module
// behind the signaling endpoints.
package realtime

import (
	"context"
	"time"

	"leadchat_backend/internal/events"
	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/internal/observability"
	"leadchat_backend/internal/realtime/handler"
	"leadchat_backend/internal/realtime/service"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"
)

// Module is the realtime bounded context module implementing http.Module.
type Module struct {
	registry *service.Registry
	handler  *handler.Handler
	sweep    time.Duration
}

// NewModule creates the realtime module. Expired sessions publish a domain
// event and refresh the live-session gauge.
func NewModule(bus events.Bus, metrics *observability.Metrics, val *validator.Validator, cfg config.RealtimeConfig, log *logger.Logger) *Module {
	registry := service.NewRegistry(cfg.GetRealtimeSessionTTL())

	registry.SetExpireHook(func(s service.LiveSession) {
		if log != nil {
			log.Info("live session expired",
				"session_id", s.ID,
				"idle_for", time.Since(s.LastActivityAt).String(),
			)
		}
		if bus != nil {
			bus.Publish(context.Background(), events.LiveSessionExpired{
				BaseEvent: events.NewBaseEvent(),
				SessionID: s.ID,
				UserID:    s.UserID,
				IdleFor:   time.Since(s.LastActivityAt),
			})
		}
		metrics.SetActiveLiveSessions(registry.ActiveCount())
	})

	return &Module{
		registry: registry,
		handler:  handler.New(registry, val, cfg.GetRealtimeVoiceEnabled(), cfg.GetRealtimeVideoEnabled()),
		sweep:    cfg.GetRealtimeSweepInterval(),
	}
}

// Name returns the module's identifier for logging purposes.
func (m *Module) Name() string { return "realtime" }

// RegisterRoutes mounts the signaling routes under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Start launches the background sweep; it stops when ctx is cancelled.
func (m *Module) Start(ctx context.Context) {
	m.registry.StartJanitor(ctx, m.sweep)
}
