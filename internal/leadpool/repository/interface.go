// Package repository is the Lead Store: persistence for pool leads, tenant
// lead copies, tenant configuration and pool settings.
//
// Every ownership transition is a conditional write. Callers never read a
// lead's state and then write it back.
package repository

import (
	"context"
	"errors"
	"time"

	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a tenant or lead does not exist.
var ErrNotFound = errors.New("not found")

// Cursor is a keyset position in the oldest-first pool order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// After reports whether lead sorts strictly after the cursor.
func (c Cursor) After(lead domain.Lead) bool {
	if !lead.CreatedAt.Equal(c.CreatedAt) {
		return lead.CreatedAt.After(c.CreatedAt)
	}
	return lead.ID.String() > c.ID.String()
}

// CursorOf returns the cursor positioned at lead.
func CursorOf(lead domain.Lead) Cursor {
	return Cursor{CreatedAt: lead.CreatedAt, ID: lead.ID}
}

// ContactKeys are the dedup keys of a tenant's existing copies.
type ContactKeys struct {
	Phones map[string]struct{}
	Emails map[string]struct{}
}

// NewContactKeys returns empty key sets.
func NewContactKeys() ContactKeys {
	return ContactKeys{Phones: map[string]struct{}{}, Emails: map[string]struct{}{}}
}

// =====================================
// Segregated Interfaces
// =====================================

// LeadReader reads pool leads.
type LeadReader interface {
	// ListUnowned returns up to limit unowned leads after the cursor (nil
	// starts at the oldest), oldest first, skipping leads carrying any of
	// excludeFlags.
	ListUnowned(ctx context.Context, after *Cursor, limit int, excludeFlags []domain.Flag) ([]domain.Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	CountByState(ctx context.Context) (domain.PoolCounts, error)
}

// LeadOwnership performs the conditional ownership transitions.
type LeadOwnership interface {
	// ClaimMany applies unowned -> locked(tenant) to each id independently
	// and returns the ids whose guard held.
	ClaimMany(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID, at time.Time) ([]uuid.UUID, error)
	// MarkDistributed applies locked(tenant) -> distributed(tenant).
	MarkDistributed(ctx context.Context, id, tenantID uuid.UUID, at time.Time) (bool, error)
	// ReleaseClaims moves leads still locked(tenant) back to unowned.
	ReleaseClaims(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID) (int, error)
	// ResetToAvailable moves the given leads to unowned from any state.
	ResetToAvailable(ctx context.Context, ids []uuid.UUID) (int, error)
	// ResetLocked moves up to limit leads locked before lockedBefore back to unowned.
	ResetLocked(ctx context.Context, lockedBefore time.Time, limit int) (int, error)
}

// LeadWriter adds, reflags and removes pool leads.
type LeadWriter interface {
	InsertLeads(ctx context.Context, leads []domain.Lead) (int, error)
	UpdateFlags(ctx context.Context, flags map[uuid.UUID]domain.Flags) error
	// RemoveUnowned hard-deletes the given leads that are still unowned.
	RemoveUnowned(ctx context.Context, ids []uuid.UUID) (int, error)
}

// CopyStore manages tenant lead copies.
type CopyStore interface {
	// CommitDistribution transitions the copies' pool leads from
	// locked(tenant) to distributed(tenant) and inserts the copies whose
	// transition held, in one transaction. Returns the committed pool lead ids.
	CommitDistribution(ctx context.Context, tenantID uuid.UUID, copies []domain.TenantLeadCopy, at time.Time) ([]uuid.UUID, error)
	ContactKeys(ctx context.Context, tenantID uuid.UUID) (ContactKeys, error)
	CountCopies(ctx context.Context, tenantID uuid.UUID) (domain.CopyCounts, error)
	CountCopiesBySource(ctx context.Context) (domain.CopyCounts, error)
	CopyCountsByTenant(ctx context.Context) (map[uuid.UUID]domain.CopyCounts, error)
	// ListPlatformCopies pages platform_distributed copies ordered by id.
	ListPlatformCopies(ctx context.Context, after uuid.UUID, limit int) ([]domain.CopyRef, error)
	// RecallCopies deletes the copies and resets their pool leads, still
	// owned by the copy's tenant, to unowned in one transaction.
	RecallCopies(ctx context.Context, refs []domain.CopyRef) (deleted, unlocked int, err error)
}

// TenantStore manages tenant distribution configuration.
type TenantStore interface {
	ListTenants(ctx context.Context) ([]domain.TenantConfig, error)
	GetTenant(ctx context.Context, id uuid.UUID) (domain.TenantConfig, error)
	SaveTenant(ctx context.Context, tenant domain.TenantConfig) error
	SetTenantActive(ctx context.Context, id uuid.UUID, active bool) (domain.TenantConfig, error)
	SetTenantQuota(ctx context.Context, id uuid.UUID, dailyQuota, intervalHours int) (domain.TenantConfig, error)
	TouchLastDistribution(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SettingsStore persists pool-wide boolean settings.
type SettingsStore interface {
	// GetBool returns false for an unset key.
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// Store is the full Lead Store.
type Store interface {
	LeadReader
	LeadOwnership
	LeadWriter
	CopyStore
	TenantStore
	SettingsStore
}

// Compile-time checks.
var (
	_ Store = (*Repository)(nil)
	_ Store = (*Memory)(nil)
)
