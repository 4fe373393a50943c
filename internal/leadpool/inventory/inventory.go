// Package inventory is the single choke point for reading and writing pool
// lead ownership. All engines go through a Manager.
package inventory

import (
	"context"
	"iter"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/metrics"
	"leadpool_backend/internal/leadpool/repository"
	"leadpool_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	DefaultBatchSize = 300
	MaxBatchSize     = 400
	DefaultPageSize  = 500
)

// Store is the slice of the Lead Store the manager needs.
type Store interface {
	repository.LeadReader
	repository.LeadOwnership
	repository.LeadWriter
}

// Manager owns lead state transitions.
type Manager struct {
	store     Store
	log       *logger.Logger
	batchSize int
	pageSize  int
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithBatchSize sets the write batch size, clamped to [1, MaxBatchSize].
func WithBatchSize(n int) Option {
	return func(m *Manager) { m.batchSize = ClampBatchSize(n) }
}

// WithPageSize sets how many leads ListAvailable fetches per query.
func WithPageSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// New creates a Manager.
func New(store Store, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{
		store:     store,
		log:       log.WithComponent("inventory"),
		batchSize: DefaultBatchSize,
		pageSize:  DefaultPageSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BatchSize is the bounded write chunk size.
func (m *Manager) BatchSize() int { return m.batchSize }

// Now returns the manager's clock reading in UTC.
func (m *Manager) Now() time.Time { return m.now().UTC() }

// ListAvailable yields unowned leads without any of excludeFlags, oldest
// first, at most limit of them (limit <= 0 means no limit). A nil
// excludeFlags excludes the hard-fail flags. Pages are fetched lazily with a
// keyset cursor, so leads claimed by other runs between pages never shift
// the position. Iteration stops after the first error.
func (m *Manager) ListAvailable(ctx context.Context, limit int, excludeFlags []domain.Flag) iter.Seq2[domain.Lead, error] {
	if excludeFlags == nil {
		excludeFlags = domain.HardFailFlags()
	}
	return func(yield func(domain.Lead, error) bool) {
		var (
			cursor  *repository.Cursor
			yielded int
		)
		for {
			if err := ctx.Err(); err != nil {
				yield(domain.Lead{}, err)
				return
			}

			pageSize := m.pageSize
			if limit > 0 && limit-yielded < pageSize {
				pageSize = limit - yielded
			}
			page, err := m.store.ListUnowned(ctx, cursor, pageSize, excludeFlags)
			if err != nil {
				yield(domain.Lead{}, err)
				return
			}

			for _, lead := range page {
				if !yield(lead, nil) {
					return
				}
				yielded++
			}

			if len(page) < pageSize || (limit > 0 && yielded >= limit) {
				return
			}
			next := repository.CursorOf(page[len(page)-1])
			cursor = &next
		}
	}
}

// Claim moves one lead from unowned to locked(tenantID). False means another
// run got there first.
func (m *Manager) Claim(ctx context.Context, leadID, tenantID uuid.UUID) (bool, error) {
	claimed, err := m.ClaimMany(ctx, []uuid.UUID{leadID}, tenantID)
	if err != nil {
		return false, err
	}
	return len(claimed) == 1, nil
}

// ClaimMany claims each lead independently and returns the winners.
func (m *Manager) ClaimMany(ctx context.Context, leadIDs []uuid.UUID, tenantID uuid.UUID) ([]uuid.UUID, error) {
	claimed, err := m.store.ClaimMany(ctx, leadIDs, tenantID, m.Now())
	metrics.LeadsClaimed.Add(float64(len(claimed)))
	if lost := len(leadIDs) - len(claimed); err == nil && lost > 0 {
		metrics.ClaimContention.Add(float64(lost))
	}
	return claimed, err
}

// MarkDistributed moves locked(tenantID) to distributed(tenantID). A failed
// guard is a no-op.
func (m *Manager) MarkDistributed(ctx context.Context, leadID, tenantID uuid.UUID) (bool, error) {
	ok, err := m.store.MarkDistributed(ctx, leadID, tenantID, m.Now())
	if err != nil {
		return false, err
	}
	if !ok {
		m.log.Debug("lead not locked by tenant, skipping", "leadId", leadID, "tenantId", tenantID)
	}
	return ok, nil
}

// ReleaseClaims returns leads still locked by tenantID to the pool.
func (m *Manager) ReleaseClaims(ctx context.Context, leadIDs []uuid.UUID, tenantID uuid.UUID) (int, error) {
	n, err := m.store.ReleaseClaims(ctx, leadIDs, tenantID)
	if n > 0 {
		metrics.LeadsUnlocked.WithLabelValues("released").Add(float64(n))
	}
	return n, err
}

// ResetLocked returns up to limit leads locked before lockedBefore to the pool.
func (m *Manager) ResetLocked(ctx context.Context, lockedBefore time.Time, limit int) (int, error) {
	return m.store.ResetLocked(ctx, lockedBefore, limit)
}

// ResetToAvailable moves leads back to unowned in bounded batches.
func (m *Manager) ResetToAvailable(ctx context.Context, leadIDs []uuid.UUID) (int, error) {
	total := 0
	for _, batch := range Batches(leadIDs, m.batchSize) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := m.store.ResetToAvailable(ctx, batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Remove hard-deletes unowned leads in bounded batches.
func (m *Manager) Remove(ctx context.Context, leadIDs []uuid.UUID) (int, error) {
	total := 0
	for _, batch := range Batches(leadIDs, m.batchSize) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := m.store.RemoveUnowned(ctx, batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Insert stores new unowned leads in bounded batches. Leads whose id
// already exists are skipped.
func (m *Manager) Insert(ctx context.Context, leads []domain.Lead) (int, error) {
	total := 0
	for _, batch := range Batches(leads, m.batchSize) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := m.store.InsertLeads(ctx, batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// UpdateFlags replaces the stored quality flags of the given leads in
// bounded batches.
func (m *Manager) UpdateFlags(ctx context.Context, flags map[uuid.UUID]domain.Flags) error {
	if len(flags) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(flags))
	for id := range flags {
		ids = append(ids, id)
	}

	for _, batch := range Batches(ids, m.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := make(map[uuid.UUID]domain.Flags, len(batch))
		for _, id := range batch {
			chunk[id] = flags[id]
		}
		if err := m.store.UpdateFlags(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns pool totals by ownership state.
func (m *Manager) Counts(ctx context.Context) (domain.PoolCounts, error) {
	return m.store.CountByState(ctx)
}

// ClampBatchSize bounds n to [1, MaxBatchSize]; non-positive yields the default.
func ClampBatchSize(n int) int {
	switch {
	case n <= 0:
		return DefaultBatchSize
	case n > MaxBatchSize:
		return MaxBatchSize
	default:
		return n
	}
}

// Batches splits items into consecutive chunks of at most size.
func Batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
