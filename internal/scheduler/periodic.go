package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadpool_backend/platform/config"
	"leadpool_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// PeriodicScheduler enqueues the recurring pool tasks on a cron spec.
type PeriodicScheduler struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewPeriodicScheduler registers the distribution task on DISTRIBUTION_CRON.
// Tenants that are not due are skipped by the run itself, so the cron only
// bounds how late a due tenant can be served.
func NewPeriodicScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*PeriodicScheduler, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	task, err := NewDistributeLeadsTask(DistributeLeadsPayload{RequestedBy: "cron"})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(cfg.GetDistributionCron(), task, asynq.Queue(queueName(cfg)), asynq.MaxRetry(0))
	if err != nil {
		return nil, fmt.Errorf("register distribution cron %q: %w", cfg.GetDistributionCron(), err)
	}

	log.Info("distribution cron registered", "spec", cfg.GetDistributionCron(), "entryId", entryID)
	return &PeriodicScheduler{scheduler: scheduler, log: log}, nil
}

func (s *PeriodicScheduler) Run(ctx context.Context) {
	if s == nil || s.scheduler == nil {
		return
	}

	if err := s.scheduler.Start(); err != nil {
		s.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	s.scheduler.Shutdown()
}
