package scheduler

import (
	"context"
	"time"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// FollowUpTicker periodically enqueues the fan-out task. It runs in the
// scheduler process next to the worker.
type FollowUpTicker struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewFollowUpTicker(cfg config.SchedulerConfig, client *Client, log *logger.Logger) *FollowUpTicker {
	interval := cfg.GetFollowUpTickInterval()
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &FollowUpTicker{client: client, interval: interval, log: log}
}

func (t *FollowUpTicker) Run(ctx context.Context) {
	if t == nil || t.client == nil {
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := t.client.EnqueueFollowUpTick(ctx); err != nil {
			t.log.Warn("follow-up tick enqueue failed", "error", err)
		}
	}
}
