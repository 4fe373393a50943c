package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDistributionIntervalHours applies when a tenant has no interval configured.
const DefaultDistributionIntervalHours = 24

// TenantConfig is a company's distribution configuration.
type TenantConfig struct {
	ID                        uuid.UUID
	Name                      string
	DailyQuota                int
	IsActive                  bool
	DistributionIntervalHours int
	LastDistributionAt        *time.Time
}

// Interval returns the distribution interval, defaulting to 24 hours.
func (t TenantConfig) Interval() time.Duration {
	hours := t.DistributionIntervalHours
	if hours <= 0 {
		hours = DefaultDistributionIntervalHours
	}
	return time.Duration(hours) * time.Hour
}

// NextDistributionDueAt returns when the tenant is next due. A tenant that
// has never been distributed to is due immediately (nil).
func (t TenantConfig) NextDistributionDueAt() *time.Time {
	if t.LastDistributionAt == nil {
		return nil
	}
	next := t.LastDistributionAt.Add(t.Interval())
	return &next
}

// CopyCounts are a tenant's lead copy totals by source.
type CopyCounts struct {
	Platform int
	Private  int
}
