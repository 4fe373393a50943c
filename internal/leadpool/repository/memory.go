package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Every method holds one mutex for its whole
// duration, which gives the same per-row compare-and-swap guarantees as the
// conditional updates of the PostgreSQL store.
type Memory struct {
	mu       sync.Mutex
	leads    map[uuid.UUID]domain.Lead
	copies   map[uuid.UUID]domain.TenantLeadCopy
	tenants  map[uuid.UUID]domain.TenantConfig
	settings map[string]bool
	now      func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		leads:    make(map[uuid.UUID]domain.Lead),
		copies:   make(map[uuid.UUID]domain.TenantLeadCopy),
		tenants:  make(map[uuid.UUID]domain.TenantConfig),
		settings: make(map[string]bool),
		now:      time.Now,
	}
}

// ---- leads ----

func (m *Memory) ListUnowned(ctx context.Context, after *Cursor, limit int, excludeFlags []domain.Flag) ([]domain.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := make([]domain.Lead, 0)
	for _, lead := range m.leads {
		if lead.Ownership.State != domain.OwnershipUnowned {
			continue
		}
		if lead.QualityFlags.HasAny(excludeFlags...) {
			continue
		}
		if after != nil && !after.After(lead) {
			continue
		}
		matches = append(matches, cloneLead(lead))
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Before(matches[j]) })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Memory) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (m *Memory) CountByState(ctx context.Context) (domain.PoolCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counts domain.PoolCounts
	for _, lead := range m.leads {
		counts.Total++
		switch lead.Ownership.State {
		case domain.OwnershipUnowned:
			counts.Unowned++
			if !lead.QualityFlags.HasHardFail() {
				counts.Available++
			}
		case domain.OwnershipLocked:
			counts.Locked++
		case domain.OwnershipDistributed:
			counts.Distributed++
		}
	}
	return counts, nil
}

func (m *Memory) ClaimMany(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	claimed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		lead, ok := m.leads[id]
		if !ok || lead.Ownership.State != domain.OwnershipUnowned {
			continue
		}
		lead.Ownership = domain.Locked(tenantID, at)
		lead.UpdatedAt = at
		m.leads[id] = lead
		claimed = append(claimed, id)
	}
	return claimed, nil
}

func (m *Memory) MarkDistributed(ctx context.Context, id, tenantID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markDistributedLocked(id, tenantID, at), nil
}

func (m *Memory) markDistributedLocked(id, tenantID uuid.UUID, at time.Time) bool {
	lead, ok := m.leads[id]
	if !ok || lead.Ownership.State != domain.OwnershipLocked || !lead.Ownership.OwnedBy(tenantID) {
		return false
	}
	lead.Ownership = domain.Distributed(tenantID, lead.Ownership.LockedAt, at)
	lead.UpdatedAt = at
	m.leads[id] = lead
	return true
}

func (m *Memory) ReleaseClaims(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	released := 0
	for _, id := range ids {
		lead, ok := m.leads[id]
		if !ok || lead.Ownership.State != domain.OwnershipLocked || !lead.Ownership.OwnedBy(tenantID) {
			continue
		}
		if m.release(id, now) {
			released++
		}
	}
	return released, nil
}

func (m *Memory) ResetToAvailable(ctx context.Context, ids []uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	reset := 0
	for _, id := range ids {
		if m.release(id, now) {
			reset++
		}
	}
	return reset, nil
}

func (m *Memory) release(id uuid.UUID, at time.Time) bool {
	lead, ok := m.leads[id]
	if !ok || lead.Ownership.State == domain.OwnershipUnowned {
		return false
	}
	lead.Ownership = domain.Unowned()
	lead.UpdatedAt = at
	m.leads[id] = lead
	return true
}

func (m *Memory) ResetLocked(ctx context.Context, lockedBefore time.Time, limit int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stale := make([]domain.Lead, 0)
	for _, lead := range m.leads {
		if lead.Ownership.State == domain.OwnershipLocked && lead.Ownership.LockedAt != nil && lead.Ownership.LockedAt.Before(lockedBefore) {
			stale = append(stale, lead)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].Ownership.LockedAt.Before(*stale[j].Ownership.LockedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	now := m.now()
	for _, lead := range stale {
		m.release(lead.ID, now)
	}
	return len(stale), nil
}

func (m *Memory) InsertLeads(ctx context.Context, leads []domain.Lead) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	inserted := 0
	for _, lead := range leads {
		if lead.ID == uuid.Nil {
			lead.ID = uuid.New()
		}
		if _, exists := m.leads[lead.ID]; exists {
			continue
		}
		if lead.CreatedAt.IsZero() {
			lead.CreatedAt = now
		}
		if lead.UpdatedAt.IsZero() {
			lead.UpdatedAt = lead.CreatedAt
		}
		if !lead.Ownership.State.Valid() {
			lead.Ownership = domain.Unowned()
		}
		m.leads[lead.ID] = cloneLead(lead)
		inserted++
	}
	return inserted, nil
}

func (m *Memory) UpdateFlags(ctx context.Context, flags map[uuid.UUID]domain.Flags) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, set := range flags {
		lead, ok := m.leads[id]
		if !ok {
			continue
		}
		lead.QualityFlags = set.Union(nil)
		lead.UpdatedAt = now
		m.leads[id] = lead
	}
	return nil
}

func (m *Memory) RemoveUnowned(ctx context.Context, ids []uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, id := range ids {
		lead, ok := m.leads[id]
		if !ok || lead.Ownership.State != domain.OwnershipUnowned {
			continue
		}
		delete(m.leads, id)
		removed++
	}
	return removed, nil
}

// ---- copies ----

func (m *Memory) CommitDistribution(ctx context.Context, tenantID uuid.UUID, copies []domain.TenantLeadCopy, at time.Time) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	committed := make([]uuid.UUID, 0, len(copies))
	for _, c := range copies {
		if c.PoolLeadID == nil {
			continue
		}
		if !m.markDistributedLocked(*c.PoolLeadID, tenantID, at) {
			continue
		}
		c.TenantID = tenantID
		m.copies[c.ID] = c
		committed = append(committed, *c.PoolLeadID)
	}
	return committed, nil
}

func (m *Memory) ContactKeys(ctx context.Context, tenantID uuid.UUID) (ContactKeys, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := NewContactKeys()
	for _, c := range m.copies {
		if c.TenantID != tenantID {
			continue
		}
		if c.NormalizedPhone != "" {
			keys.Phones[c.NormalizedPhone] = struct{}{}
		}
		if email := strings.ToLower(strings.TrimSpace(c.Email)); email != "" {
			keys.Emails[email] = struct{}{}
		}
	}
	return keys, nil
}

func (m *Memory) CountCopies(ctx context.Context, tenantID uuid.UUID) (domain.CopyCounts, error) {
	all, err := m.CopyCountsByTenant(ctx)
	if err != nil {
		return domain.CopyCounts{}, err
	}
	return all[tenantID], nil
}

func (m *Memory) CountCopiesBySource(ctx context.Context) (domain.CopyCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counts domain.CopyCounts
	for _, c := range m.copies {
		addCopy(&counts, c.SourceType)
	}
	return counts, nil
}

func (m *Memory) CopyCountsByTenant(ctx context.Context) (map[uuid.UUID]domain.CopyCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uuid.UUID]domain.CopyCounts)
	for _, c := range m.copies {
		counts := out[c.TenantID]
		addCopy(&counts, c.SourceType)
		out[c.TenantID] = counts
	}
	return out, nil
}

func addCopy(counts *domain.CopyCounts, source domain.SourceType) {
	switch source {
	case domain.SourcePlatformDistributed:
		counts.Platform++
	case domain.SourcePrivateUpload:
		counts.Private++
	}
}

func (m *Memory) ListPlatformCopies(ctx context.Context, after uuid.UUID, limit int) ([]domain.CopyRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	refs := make([]domain.CopyRef, 0)
	for _, c := range m.copies {
		if c.SourceType != domain.SourcePlatformDistributed {
			continue
		}
		if after != uuid.Nil && c.ID.String() <= after.String() {
			continue
		}
		refs = append(refs, domain.CopyRef{ID: c.ID, TenantID: c.TenantID, PoolLeadID: c.PoolLeadID})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID.String() < refs[j].ID.String() })
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (m *Memory) RecallCopies(ctx context.Context, refs []domain.CopyRef) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	deleted, unlocked := 0, 0
	for _, ref := range refs {
		if _, ok := m.copies[ref.ID]; !ok {
			continue
		}
		delete(m.copies, ref.ID)
		deleted++

		if ref.PoolLeadID == nil {
			continue
		}
		lead, ok := m.leads[*ref.PoolLeadID]
		if !ok || !lead.Ownership.OwnedBy(ref.TenantID) {
			continue
		}
		if m.release(lead.ID, now) {
			unlocked++
		}
	}
	return deleted, unlocked, nil
}

// AddCopy stores a copy as-is. Private uploads enter through a path outside
// the pool engines, so this exists for seeding local runs and tests.
func (m *Memory) AddCopy(c domain.TenantLeadCopy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.copies[c.ID] = c
}

// Copies returns every copy held by tenantID.
func (m *Memory) Copies(tenantID uuid.UUID) []domain.TenantLeadCopy {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TenantLeadCopy, 0)
	for _, c := range m.copies {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out
}

// ---- tenants ----

func (m *Memory) ListTenants(ctx context.Context) ([]domain.TenantConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.TenantConfig, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *Memory) GetTenant(ctx context.Context, id uuid.UUID) (domain.TenantConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return domain.TenantConfig{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) SaveTenant(ctx context.Context, tenant domain.TenantConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if tenant.DistributionIntervalHours <= 0 {
		tenant.DistributionIntervalHours = domain.DefaultDistributionIntervalHours
	}
	m.tenants[tenant.ID] = tenant
	return nil
}

func (m *Memory) SetTenantActive(ctx context.Context, id uuid.UUID, active bool) (domain.TenantConfig, error) {
	return m.updateTenant(id, func(t *domain.TenantConfig) { t.IsActive = active })
}

func (m *Memory) SetTenantQuota(ctx context.Context, id uuid.UUID, dailyQuota, intervalHours int) (domain.TenantConfig, error) {
	return m.updateTenant(id, func(t *domain.TenantConfig) {
		t.DailyQuota = dailyQuota
		if intervalHours > 0 {
			t.DistributionIntervalHours = intervalHours
		}
	})
}

func (m *Memory) TouchLastDistribution(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := m.updateTenant(id, func(t *domain.TenantConfig) { t.LastDistributionAt = &at })
	return err
}

func (m *Memory) updateTenant(id uuid.UUID, fn func(*domain.TenantConfig)) (domain.TenantConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return domain.TenantConfig{}, ErrNotFound
	}
	fn(&t)
	m.tenants[id] = t
	return t, nil
}

// ---- settings ----

func (m *Memory) GetBool(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[key], nil
}

func (m *Memory) SetBool(ctx context.Context, key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func cloneLead(lead domain.Lead) domain.Lead {
	lead.QualityFlags = lead.QualityFlags.Union(nil)
	return lead
}

