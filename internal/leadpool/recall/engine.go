// Package recall reverses allocation: it deletes platform lead copies and
// frees their pool leads, or force-resets stuck locks.
//
// These operations are the tools used while maintenance mode is on, so they
// do not consult the maintenance gate. Destructive intent is confirmed by
// the caller before Engine.RecallAll is reached.
package recall

import (
	"context"
	"fmt"
	"time"

	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/metrics"
	"leadpool_backend/internal/leadpool/repository"
	"leadpool_backend/platform/logger"

	"github.com/google/uuid"
)

// RecallReport is the result of RecallAll.
type RecallReport struct {
	DeletedCount  int `json:"deletedCount"`
	UnlockedCount int `json:"unlockedCount"`
	Batches       int `json:"batches"`
}

// UnlockReport is the result of ForceUnlockAll and UnlockStale.
type UnlockReport struct {
	Message       string `json:"message"`
	UnlockedCount int    `json:"unlockedCount"`
	Batches       int    `json:"batches"`
}

// Engine runs recall and unlock sweeps.
type Engine struct {
	inv    *inventory.Manager
	copies repository.CopyStore
	log    *logger.Logger
}

// NewEngine creates an Engine.
func NewEngine(inv *inventory.Manager, copies repository.CopyStore, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{inv: inv, copies: copies, log: log.WithComponent("recall")}
}

// RecallAll deletes every platform_distributed copy and returns its pool
// lead to unowned, one transaction per batch. On error the report holds
// what the committed batches did.
func (e *Engine) RecallAll(ctx context.Context) (RecallReport, error) {
	var report RecallReport
	start := time.Now()
	defer func() { metrics.OperationDuration.WithLabelValues("recall").Observe(time.Since(start).Seconds()) }()

	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		refs, err := e.copies.ListPlatformCopies(ctx, after, e.inv.BatchSize())
		if err != nil {
			return report, fmt.Errorf("list platform copies: %w", err)
		}
		if len(refs) == 0 {
			break
		}

		deleted, unlocked, err := e.copies.RecallCopies(ctx, refs)
		if err != nil {
			return report, fmt.Errorf("recall batch %d: %w", report.Batches+1, err)
		}
		report.DeletedCount += deleted
		report.UnlockedCount += unlocked
		report.Batches++
		metrics.LeadsRecalled.Add(float64(deleted))
		metrics.LeadsUnlocked.WithLabelValues("recall").Add(float64(unlocked))

		after = refs[len(refs)-1].ID
	}

	e.log.Info("platform leads recalled",
		"deleted", report.DeletedCount, "unlocked", report.UnlockedCount, "batches", report.Batches)
	return report, nil
}

// ForceUnlockAll resets every lead locked at call time back to unowned.
// Tenant copies are not touched.
func (e *Engine) ForceUnlockAll(ctx context.Context) (UnlockReport, error) {
	report, err := e.unlockBefore(ctx, e.inv.Now().Add(time.Nanosecond), "force")
	if err == nil {
		report.Message = fmt.Sprintf("Unlocked %d stuck leads", report.UnlockedCount)
	}
	return report, err
}

// UnlockStale resets leads locked for longer than olderThan.
func (e *Engine) UnlockStale(ctx context.Context, olderThan time.Duration) (UnlockReport, error) {
	report, err := e.unlockBefore(ctx, e.inv.Now().Add(-olderThan), "stale")
	if err == nil {
		report.Message = fmt.Sprintf("Unlocked %d leads locked longer than %s", report.UnlockedCount, olderThan)
	}
	return report, err
}

func (e *Engine) unlockBefore(ctx context.Context, cutoff time.Time, reason string) (UnlockReport, error) {
	var report UnlockReport
	start := time.Now()
	defer func() { metrics.OperationDuration.WithLabelValues("unlock").Observe(time.Since(start).Seconds()) }()

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		n, err := e.inv.ResetLocked(ctx, cutoff, e.inv.BatchSize())
		if err != nil {
			return report, fmt.Errorf("unlock batch %d: %w", report.Batches+1, err)
		}
		if n == 0 {
			break
		}
		report.UnlockedCount += n
		report.Batches++
		metrics.LeadsUnlocked.WithLabelValues(reason).Add(float64(n))
	}

	if report.UnlockedCount > 0 {
		e.log.Info("locked leads reset", "reason", reason, "unlocked", report.UnlockedCount, "batches", report.Batches)
	}
	return report, nil
}
