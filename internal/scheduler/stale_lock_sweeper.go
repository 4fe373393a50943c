package scheduler

import (
	"context"
	"time"

	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/platform/logger"
)

const (
	defaultStaleLockSweepInterval = 5 * time.Minute
	defaultStaleLockTTL           = 30 * time.Minute
)

// StaleUnlocker resets leads locked longer than a TTL.
type StaleUnlocker interface {
	UnlockStale(ctx context.Context, olderThan time.Duration) (transport.UnlockResponse, error)
}

// StaleLockSweeper periodically frees leads left locked by a crashed or
// abandoned distribution run.
type StaleLockSweeper struct {
	pool     StaleUnlocker
	log      *logger.Logger
	interval time.Duration
	ttl      time.Duration
}

func NewStaleLockSweeper(pool StaleUnlocker, log *logger.Logger, interval, ttl time.Duration) *StaleLockSweeper {
	if interval <= 0 {
		interval = defaultStaleLockSweepInterval
	}
	if ttl <= 0 {
		ttl = defaultStaleLockTTL
	}

	return &StaleLockSweeper{
		pool:     pool,
		log:      log,
		interval: interval,
		ttl:      ttl,
	}
}

func (s *StaleLockSweeper) Run(ctx context.Context) {
	if s == nil || s.pool == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StaleLockSweeper) sweep(ctx context.Context) {
	result, err := s.pool.UnlockStale(ctx, s.ttl)
	if err != nil {
		s.log.Warn("stale lock sweep failed", "error", err)
		return
	}

	if result.UnlockedCount > 0 {
		s.log.Info("stale lock sweep released leads", "unlocked", result.UnlockedCount, "ttl", s.ttl)
	}
}
