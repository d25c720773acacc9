package scheduler

import (
	"context"
	"fmt"

	"leadchat_backend/internal/notification"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes scheduled follow-up tasks and delivers the emails.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender notification.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sender notification.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskLeadFollowUp, w.handleLeadFollowUp)

	return w, nil
}

func (w *Worker) handleLeadFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadFollowUpPayload(task)
	if err != nil {
		return err
	}
	if payload.Email == "" {
		return nil
	}
	if w.sender == nil {
		w.log.Warn("follow-up skipped, no email sender configured", "session_id", payload.SessionID)
		return nil
	}

	if err := w.sender.SendFollowUp(ctx, payload.Email, payload.Name); err != nil {
		w.log.Error("follow-up delivery failed", "session_id", payload.SessionID, "error", err)
		return err
	}

	w.log.Info("follow-up delivered", "session_id", payload.SessionID)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
