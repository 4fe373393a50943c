package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/platform/apperr"
	"leadpool_backend/platform/config"
	"leadpool_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// PoolRunner is the slice of the lead pool service the worker drives.
type PoolRunner interface {
	DistributeDailyLeads(ctx context.Context, force bool, mode string) (transport.DistributeResponse, error)
	UnlockStale(ctx context.Context, olderThan time.Duration) (transport.UnlockResponse, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	pool   PoolRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool PoolRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(pool, log)
	w.server = server
	return w, nil
}

func newWorker(pool PoolRunner, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	w := &Worker{
		mux:  asynq.NewServeMux(),
		pool: pool,
		log:  log.WithComponent("scheduler"),
	}
	w.mux.HandleFunc(TaskDistributeLeads, w.handleDistributeLeads)
	w.mux.HandleFunc(TaskUnlockStaleLeads, w.handleUnlockStaleLeads)
	return w
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

func (w *Worker) handleDistributeLeads(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDistributeLeadsPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	result, err := w.pool.DistributeDailyLeads(ctx, payload.Force, payload.Mode)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	w.log.Info("scheduled distribution finished",
		"outcome", result.Outcome, "forced", payload.Force,
		"allocated", result.TotalAllocated, "requestedBy", payload.RequestedBy)
	return nil
}

func (w *Worker) handleUnlockStaleLeads(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseUnlockStaleLeadsPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.OlderThanSeconds <= 0 {
		return fmt.Errorf("%w: olderThanSeconds must be positive", asynq.SkipRetry)
	}

	_, err = w.pool.UnlockStale(ctx, time.Duration(payload.OlderThanSeconds)*time.Second)
	return err
}
