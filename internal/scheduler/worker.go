package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"leadflow_backend/internal/followup"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	client       *Client
	repo         *repository.Repository
	followups    *followup.Service
	intervalDays int
	maxSteps     int
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, fuCfg config.FollowUpConfig, repo *repository.Repository, followups *followup.Service, client *Client, log *logger.Logger) (*Worker, error) {
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
		server:       server,
		mux:          mux,
		client:       client,
		repo:         repo,
		followups:    followups,
		intervalDays: fuCfg.GetFollowUpIntervalDays(),
		maxSteps:     fuCfg.GetMaxFollowUps(),
		log:          log,
	}

	mux.HandleFunc(TaskFollowUpTick, w.handleFollowUpTick)
	mux.HandleFunc(TaskFollowUpLead, w.handleFollowUpLead)

	return w, nil
}

// handleFollowUpTick fans the due-lead selection out into one task per
// lead, so each lead retries independently.
func (w *Worker) handleFollowUpTick(ctx context.Context, _ *asynq.Task) error {
	due, err := w.repo.DueForFollowUp(ctx, w.intervalDays, w.maxSteps, 500)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	enqueued := 0
	for _, lead := range due {
		payload := FollowUpLeadPayload{LeadID: lead.ID.String(), Step: lead.FollowUpCount + 1}
		if err := w.client.EnqueueFollowUpLead(ctx, payload); err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			w.log.Warn("follow-up enqueue failed", "leadId", payload.LeadID, "error", err)
			continue
		}
		enqueued++
	}

	w.log.Info("follow-up tick fanned out", "due", len(due), "enqueued", enqueued)
	return nil
}

func (w *Worker) handleFollowUpLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpLeadPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	lead, err := w.repo.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	result := w.followups.ProcessLead(ctx, lead)
	if result.Err != nil {
		// Conflicts (a reply landed, the lead moved on) and missing
		// templates are final for this lead; retrying cannot help.
		if apperr.Is(result.Err, apperr.KindConflict) || apperr.Is(result.Err, apperr.KindConfiguration) {
			w.log.Info("follow-up skipped", "leadId", payload.LeadID, "reason", result.Err.Error())
			return nil
		}
		return result.Err
	}
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
