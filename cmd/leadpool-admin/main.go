package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leadpool_backend/internal/bootstrap"
	"leadpool_backend/internal/cli"
	"leadpool_backend/internal/events"
	"leadpool_backend/internal/leadpool"
	"leadpool_backend/internal/notification"
	"leadpool_backend/internal/scheduler"
	"leadpool_backend/platform/config"
	"leadpool_backend/platform/logger"
	"leadpool_backend/platform/validator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open wires the same lead pool the API server runs, logging to stderr so
// command output stays parseable.
func open(ctx context.Context) (*cli.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	eventBus := events.NewInMemoryBus(log)
	notification.New(log).RegisterHandlers(eventBus)

	module, err := leadpool.NewModule(rt.Store, rt.Gate, eventBus, validator.New(), cfg, rt.Quarantine, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	session := &cli.Session{Pool: module.Service()}
	closers := []func(){eventBus.Wait, rt.Close}

	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		session.Enqueuer = client
		closers = append(closers, func() { _ = client.Close() })
	}

	session.Close = func() {
		for _, c := range closers {
			c()
		}
	}
	return session, nil
}
