// Package domain holds the lead pool types shared by every pool engine.
// It contains no I/O.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OwnershipState is the lifecycle state of a pool lead.
type OwnershipState string

const (
	OwnershipUnowned     OwnershipState = "unowned"
	OwnershipLocked      OwnershipState = "locked"
	OwnershipDistributed OwnershipState = "distributed"
)

// Valid reports whether the state is a known ownership state.
func (s OwnershipState) Valid() bool {
	switch s {
	case OwnershipUnowned, OwnershipLocked, OwnershipDistributed:
		return true
	default:
		return false
	}
}

// Ownership is the disjoint union unowned | locked(tenant, at) | distributed(tenant, at).
// TenantID is nil exactly when State is unowned.
type Ownership struct {
	State         OwnershipState
	TenantID      *uuid.UUID
	LockedAt      *time.Time
	DistributedAt *time.Time
}

// Unowned returns the unowned ownership value.
func Unowned() Ownership {
	return Ownership{State: OwnershipUnowned}
}

// Locked returns locked(tenantID, at).
func Locked(tenantID uuid.UUID, at time.Time) Ownership {
	return Ownership{State: OwnershipLocked, TenantID: &tenantID, LockedAt: &at}
}

// Distributed returns distributed(tenantID, at). lockedAt is kept for audit.
func Distributed(tenantID uuid.UUID, lockedAt *time.Time, at time.Time) Ownership {
	return Ownership{State: OwnershipDistributed, TenantID: &tenantID, LockedAt: lockedAt, DistributedAt: &at}
}

// OwnedBy reports whether the lead is locked or distributed to tenantID.
func (o Ownership) OwnedBy(tenantID uuid.UUID) bool {
	return o.TenantID != nil && *o.TenantID == tenantID
}

// Lead is a pool record.
type Lead struct {
	ID              uuid.UUID
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	NormalizedPhone string
	City            string
	State           string
	DriverType      string
	ExperienceYears int
	Ownership       Ownership
	QualityFlags    Flags
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Before orders leads oldest-created first, ties broken by id.
// This is the pool's fairness order.
func (l Lead) Before(other Lead) bool {
	if !l.CreatedAt.Equal(other.CreatedAt) {
		return l.CreatedAt.Before(other.CreatedAt)
	}
	return l.ID.String() < other.ID.String()
}

// SourceType tells how a lead got into a tenant's namespace.
type SourceType string

const (
	SourcePlatformDistributed SourceType = "platform_distributed"
	SourcePrivateUpload       SourceType = "private_upload"
)

// TenantLeadCopy is a lead materialized inside a tenant's private namespace.
// PoolLeadID is set for platform_distributed copies and is how recall finds
// the pool lead to release.
type TenantLeadCopy struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	PoolLeadID      *uuid.UUID
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	NormalizedPhone string
	City            string
	State           string
	DriverType      string
	ExperienceYears int
	SourceType      SourceType
	AssignedAt      time.Time
}

// NewPlatformCopy materializes a pool lead for a tenant.
func NewPlatformCopy(lead Lead, tenantID uuid.UUID, at time.Time) TenantLeadCopy {
	poolLeadID := lead.ID
	return TenantLeadCopy{
		ID:              uuid.New(),
		TenantID:        tenantID,
		PoolLeadID:      &poolLeadID,
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Email:           lead.Email,
		Phone:           lead.Phone,
		NormalizedPhone: lead.NormalizedPhone,
		City:            lead.City,
		State:           lead.State,
		DriverType:      lead.DriverType,
		ExperienceYears: lead.ExperienceYears,
		SourceType:      SourcePlatformDistributed,
		AssignedAt:      at,
	}
}

// CopyRef identifies a platform copy and the pool lead it came from.
type CopyRef struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	PoolLeadID *uuid.UUID
}
