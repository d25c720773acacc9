package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadchat_backend/internal/accounting"
	"leadchat_backend/internal/conversation"
	"leadchat_backend/internal/events"
	"leadchat_backend/internal/guard"
	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/internal/http/router"
	"leadchat_backend/internal/leads"
	leadsvc "leadchat_backend/internal/leads/service"
	"leadchat_backend/internal/observability"
	"leadchat_backend/internal/realtime"
	"leadchat_backend/internal/scheduler"
	"leadchat_backend/platform/ai/gemini"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	bus := events.NewInMemoryBus(log)
	val := validator.New()
	metrics := observability.New("leadchat")

	recorder := accounting.NewRecorder(256, log)
	recorder.SubscribeTo(bus)
	defer recorder.Close()

	if !cfg.IsGeneratorEnabled() {
		panic("GEMINI_API_KEY is required")
	}
	gen, err := gemini.New(ctx, cfg)
	if err != nil {
		panic("failed to initialize generator: " + err.Error())
	}

	guardStore := initGuardStore(cfg, log)
	followUp, closeScheduler := initFollowUpScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules
	// ========================================================================

	leadsModule := leads.NewModule(bus, followUp, val, cfg, log)

	convModule, err := conversation.NewModule(gen, guardStore, leadsModule.Service(), bus, metrics, val, cfg, log)
	if err != nil {
		panic("failed to initialize conversation module: " + err.Error())
	}

	realtimeModule := realtime.NewModule(bus, metrics, val, cfg, log)
	realtimeModule.Start(ctx)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		EventBus: bus,
		Modules: []apphttp.Module{
			leadsModule,
			convModule,
			realtimeModule,
		},
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(app),
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initGuardStore(cfg *config.Config, log *logger.Logger) guard.Store {
	if cfg.GetGuardBackend() == "redis" {
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			panic("invalid REDIS_URL: " + err.Error())
		}
		log.Info("duplicate guard using redis backend")
		return guard.NewRedisStore(redis.NewClient(opt))
	}
	return guard.NewMemoryStore(cfg.GetGuardCapacity())
}

func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (leadsvc.FollowUpScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up scheduling disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}
