package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadpool_backend/internal/bootstrap"
	"leadpool_backend/internal/events"
	"leadpool_backend/internal/leadpool"
	"leadpool_backend/internal/notification"
	"leadpool_backend/internal/scheduler"
	"leadpool_backend/platform/config"
	"leadpool_backend/platform/logger"
	"leadpool_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "cron", cfg.GetDistributionCron())

	if cfg.UsesMemoryStore() {
		panic("scheduler requires STORE_DRIVER=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		panic("failed to initialize infrastructure: " + err.Error())
	}
	defer rt.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()
	notification.New(log).RegisterHandlers(eventBus)

	// Worker-side pool wiring (no HTTP handlers required).
	leadPoolModule, err := leadpool.NewModule(rt.Store, rt.Gate, eventBus, validator.New(), cfg, rt.Quarantine, log)
	if err != nil {
		log.Error("failed to initialize lead pool module", "error", err)
		panic("failed to initialize lead pool module: " + err.Error())
	}
	pool := leadPoolModule.Service()

	sweeper := scheduler.NewStaleLockSweeper(pool, log, cfg.GetStaleLockSweepInterval(), cfg.GetStaleLockTTL())
	go sweeper.Run(ctx)

	periodic, err := scheduler.NewPeriodicScheduler(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
