// Package analytics computes read-only supply and demand figures for the pool.
package analytics

import (
	"context"
	"fmt"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/metrics"
	"leadpool_backend/internal/leadpool/repository"

	"github.com/google/uuid"
)

// Stores are the Lead Store slices analytics reads.
type Stores interface {
	repository.CopyStore
	repository.TenantStore
}

// CompanyStatus is one row of the per-tenant distribution status.
type CompanyStatus struct {
	ID                 uuid.UUID  `json:"id"`
	CompanyName        string     `json:"companyName"`
	IsActive           bool       `json:"isActive"`
	DailyQuota         int        `json:"dailyQuota"`
	IntervalHours      int        `json:"distributionIntervalHours"`
	PlatformLeadsCount int        `json:"platformLeadsCount"`
	PrivateLeadsCount  int        `json:"privateLeadsCount"`
	LastDistribution   *time.Time `json:"lastDistribution"`
	NextDistribution   *time.Time `json:"nextDistribution"`
}

// Service builds snapshots.
type Service struct {
	inv   *inventory.Manager
	store Stores
}

// New creates a Service.
func New(inv *inventory.Manager, store Stores) *Service {
	return &Service{inv: inv, store: store}
}

// Snapshot returns the current pool health. It never writes.
func (s *Service) Snapshot(ctx context.Context) (domain.PoolHealthSnapshot, error) {
	var snap domain.PoolHealthSnapshot

	counts, err := s.inv.Counts(ctx)
	if err != nil {
		return snap, fmt.Errorf("count pool leads: %w", err)
	}
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return snap, fmt.Errorf("list tenants: %w", err)
	}
	copies, err := s.store.CountCopiesBySource(ctx)
	if err != nil {
		return snap, fmt.Errorf("count tenant leads: %w", err)
	}

	snap.Supply.TotalInPool = counts.Total
	snap.Supply.Locked = counts.Locked
	snap.Supply.Distributed = counts.Distributed
	snap.Supply.AvailableNow = counts.Available

	for _, t := range tenants {
		if !t.IsActive {
			continue
		}
		snap.Demand.CompaniesCount++
		snap.Demand.TotalDailyQuota += t.DailyQuota
	}

	snap.Health.Gap = snap.Supply.AvailableNow - snap.Demand.TotalDailyQuota
	snap.Health.Status = domain.HealthSurplus
	if snap.Supply.AvailableNow < snap.Demand.TotalDailyQuota {
		snap.Health.Status = domain.HealthDeficit
	}

	snap.Distribution.TotalDistributedInCirculation = copies.Platform
	snap.Distribution.TotalPrivateUploads = copies.Private
	snap.GeneratedAt = s.inv.Now()

	metrics.PoolAvailable.Set(float64(snap.Supply.AvailableNow))
	metrics.PoolGap.Set(float64(snap.Health.Gap))
	return snap, nil
}

// CompanyStatus lists every tenant with its lead counts and schedule.
func (s *Service) CompanyStatus(ctx context.Context) ([]CompanyStatus, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	counts, err := s.store.CopyCountsByTenant(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tenant leads: %w", err)
	}

	out := make([]CompanyStatus, len(tenants))
	for i, t := range tenants {
		c := counts[t.ID]
		out[i] = CompanyStatus{
			ID:                 t.ID,
			CompanyName:        t.Name,
			IsActive:           t.IsActive,
			DailyQuota:         t.DailyQuota,
			IntervalHours:      t.DistributionIntervalHours,
			PlatformLeadsCount: c.Platform,
			PrivateLeadsCount:  c.Private,
			LastDistribution:   t.LastDistributionAt,
			NextDistribution:   t.NextDistributionDueAt(),
		}
	}
	return out, nil
}
