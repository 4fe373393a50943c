// Package bootstrap opens the infrastructure shared by the API server, the
// scheduler and the admin CLI: the Lead Store, the maintenance gate and the
// cleanup quarantine.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadpool_backend/internal/adapters/storage"
	"leadpool_backend/internal/leadpool/cleanup"
	"leadpool_backend/internal/leadpool/maintenance"
	"leadpool_backend/internal/leadpool/repository"
	"leadpool_backend/internal/scheduler"
	"leadpool_backend/platform/config"
	"leadpool_backend/platform/db"
	"leadpool_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runtime holds the opened infrastructure. Close releases it.
type Runtime struct {
	Store      repository.Store
	Gate       maintenance.Gate
	Quarantine cleanup.Quarantine
	// Health is nil for the memory store; its Ping then reports healthy.
	Health     *db.PoolAdapter

	closers []func()
}

// Open connects everything cfg asks for. The memory store is used when
// STORE_DRIVER=memory; otherwise PostgreSQL, migrated first when enabled.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	rt := &Runtime{}

	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory lead store; state is lost on exit")
		rt.Store = repository.NewMemory()
	} else {
		pool, err := openPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.Store = repository.New(pool)
		rt.Health = db.NewPoolAdapter(pool)
	}

	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewRedisClient(cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("redis client: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		rt.Gate = maintenance.NewRedisGate(client, "")
		log.Info("maintenance gate backed by redis")
	} else {
		rt.Gate = maintenance.NewStoreGate(rt.Store)
	}

	rt.Quarantine = cleanup.NopQuarantine{}
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("storage service: %w", err)
		}
		bucket := cfg.GetMinioBucketQuarantine()
		if err := WithRetry(ctx, log, "ensure quarantine bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to ensure storage bucket exists: %w", err)
		}
		rt.Quarantine = cleanup.NewObjectQuarantine(store, bucket)
		log.Info("cleanup quarantine initialized", "bucket", bucket)
	}

	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

func openPool(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if !cfg.MigrationsEnabled {
		return pool, nil
	}
	if err := WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("database migrations complete")
	return pool, nil
}

// WithRetry runs fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
