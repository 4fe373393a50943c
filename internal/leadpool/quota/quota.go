// Package quota decides which tenants are due for a distribution cycle and
// how many leads each one is owed.
package quota

import (
	"fmt"
	"sort"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/platform/apperr"
)

// IsDue reports whether the tenant's next distribution time has passed.
// A tenant never distributed to is always due.
func IsDue(t domain.TenantConfig, now time.Time) bool {
	next := t.NextDistributionDueAt()
	return next == nil || !now.Before(*next)
}

// Owed returns how many leads the tenant should receive this cycle.
// Rotate owes the full quota; top-up owes what is missing from the quota,
// floored at zero.
func Owed(t domain.TenantConfig, mode domain.Mode, platformLeads int) int {
	if mode == domain.ModeRotate {
		return t.DailyQuota
	}
	return max(t.DailyQuota-platformLeads, 0)
}

// Decision is the scheduler's verdict for one tenant.
type Decision struct {
	Needed     int
	SkipReason string
}

// Skipped reports whether the tenant receives nothing this cycle.
func (d Decision) Skipped() bool { return d.SkipReason != "" }

// Decide evaluates one tenant. force bypasses the due check only.
func Decide(t domain.TenantConfig, now time.Time, mode domain.Mode, force bool, platformLeads int) Decision {
	switch {
	case !t.IsActive:
		return Decision{SkipReason: domain.SkipInactive}
	case !force && !IsDue(t, now):
		return Decision{SkipReason: domain.SkipNotDue}
	case t.DailyQuota == 0:
		return Decision{SkipReason: domain.SkipZeroQuota}
	}

	needed := Owed(t, mode, platformLeads)
	if needed == 0 {
		return Decision{SkipReason: domain.SkipQuotaSatisfied}
	}
	return Decision{Needed: needed}
}

// Validate rejects tenant configurations the engine cannot act on. It runs
// before any write so a bad config aborts the whole run.
func Validate(tenants []domain.TenantConfig) error {
	var problems []string
	for _, t := range tenants {
		if t.DailyQuota < 0 {
			problems = append(problems, fmt.Sprintf("tenant %s: dailyQuota must be >= 0, got %d", t.ID, t.DailyQuota))
		}
		if t.DistributionIntervalHours < 0 {
			problems = append(problems, fmt.Sprintf("tenant %s: distributionIntervalHours must be >= 0, got %d", t.ID, t.DistributionIntervalHours))
		}
	}
	if len(problems) > 0 {
		return apperr.Validation("invalid tenant configuration").WithDetails(problems)
	}
	return nil
}

// Order sorts tenants so the longest-waiting are served first: never
// distributed, then oldest lastDistributionAt, then id.
func Order(tenants []domain.TenantConfig) []domain.TenantConfig {
	out := append([]domain.TenantConfig(nil), tenants...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastDistributionAt, out[j].LastDistributionAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
