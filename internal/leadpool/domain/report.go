package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects how many leads a tenant is owed in a distribution run.
type Mode string

const (
	// ModeTopUp owes quota minus the platform leads the tenant already holds.
	ModeTopUp Mode = "top_up"
	// ModeRotate owes the full quota; existing platform leads stay in place.
	ModeRotate Mode = "rotate"
)

// ParseMode converts a configured mode name, defaulting to top-up.
func ParseMode(value string) Mode {
	if Mode(value) == ModeRotate {
		return ModeRotate
	}
	return ModeTopUp
}

// Outcome is the overall result of a mutating pool operation.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomePartial           Outcome = "partial"
	OutcomeMaintenancePaused Outcome = "maintenance_paused"
)

// Skip reasons reported for tenants that receive nothing in a run.
const (
	SkipInactive        = "inactive"
	SkipNotDue          = "not_due"
	SkipZeroQuota       = "zero_quota"
	SkipQuotaSatisfied  = "quota_satisfied"
	SkipMaintenancePaus = "maintenance_paused"
)

// TenantDistribution is one tenant's line in a distribution run.
type TenantDistribution struct {
	TenantID      uuid.UUID
	TenantName    string
	Requested     int
	Allocated     int
	Deficit       int
	Contended     int
	SkippedReason string
	Errors        []string
}

// DistributionRun aggregates one scheduler pass.
type DistributionRun struct {
	Outcome        Outcome
	Mode           Mode
	Forced         bool
	StartedAt      time.Time
	FinishedAt     time.Time
	Tenants        []TenantDistribution
	TotalAllocated int
	Details        []string
}

// PoolCounts are pool lead totals by ownership state.
type PoolCounts struct {
	Total       int
	Unowned     int
	Locked      int
	Distributed int
	// Available is unowned leads without a hard-fail flag.
	Available int
}

// HealthStatus is surplus or deficit.
type HealthStatus string

const (
	HealthSurplus HealthStatus = "surplus"
	HealthDeficit HealthStatus = "deficit"
)

// PoolHealthSnapshot is the computed supply/demand picture.
type PoolHealthSnapshot struct {
	Supply struct {
		TotalInPool  int
		Locked       int
		Distributed  int
		AvailableNow int
	}
	Demand struct {
		CompaniesCount  int
		TotalDailyQuota int
	}
	Health struct {
		Status HealthStatus
		Gap    int
	}
	Distribution struct {
		TotalDistributedInCirculation int
		TotalPrivateUploads           int
	}
	GeneratedAt time.Time
}
