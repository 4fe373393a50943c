package quota

import (
	"errors"
	"strings"
	"testing"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/platform/apperr"

	"github.com/google/uuid"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestIsDue(t *testing.T) {
	tests := []struct {
		name   string
		tenant domain.TenantConfig
		want   bool
	}{
		{"never distributed", domain.TenantConfig{}, true},
		{"interval elapsed", domain.TenantConfig{DistributionIntervalHours: 24, LastDistributionAt: at(-25 * time.Hour)}, true},
		{"exactly due", domain.TenantConfig{DistributionIntervalHours: 24, LastDistributionAt: at(-24 * time.Hour)}, true},
		{"not yet", domain.TenantConfig{DistributionIntervalHours: 24, LastDistributionAt: at(-23 * time.Hour)}, false},
		{"default interval", domain.TenantConfig{LastDistributionAt: at(-12 * time.Hour)}, false},
		{"short interval", domain.TenantConfig{DistributionIntervalHours: 6, LastDistributionAt: at(-7 * time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.tenant, now); got != tt.want {
				t.Fatalf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOwed(t *testing.T) {
	tenant := domain.TenantConfig{DailyQuota: 5}
	if got := Owed(tenant, domain.ModeTopUp, 3); got != 2 {
		t.Fatalf("top-up owed = %d, want 2", got)
	}
	if got := Owed(tenant, domain.ModeTopUp, 9); got != 0 {
		t.Fatalf("top-up owed over quota = %d, want 0", got)
	}
	if got := Owed(tenant, domain.ModeRotate, 9); got != 5 {
		t.Fatalf("rotate owed = %d, want 5", got)
	}
}

func TestDecideSkipReasons(t *testing.T) {
	due := domain.TenantConfig{IsActive: true, DailyQuota: 4}
	notDue := domain.TenantConfig{IsActive: true, DailyQuota: 4, LastDistributionAt: at(-time.Hour)}

	tests := []struct {
		name   string
		tenant domain.TenantConfig
		force  bool
		held   int
		want   Decision
	}{
		{"inactive", domain.TenantConfig{DailyQuota: 4}, true, 0, Decision{SkipReason: domain.SkipInactive}},
		{"not due", notDue, false, 0, Decision{SkipReason: domain.SkipNotDue}},
		{"forced ignores due time", notDue, true, 0, Decision{Needed: 4}},
		{"zero quota", domain.TenantConfig{IsActive: true}, false, 0, Decision{SkipReason: domain.SkipZeroQuota}},
		{"satisfied", due, false, 4, Decision{SkipReason: domain.SkipQuotaSatisfied}},
		{"partial top-up", due, false, 1, Decision{Needed: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.tenant, now, domain.ModeTopUp, tt.force, tt.held)
			if got != tt.want {
				t.Fatalf("Decide = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidateRejectsNegativeQuota(t *testing.T) {
	err := Validate([]domain.TenantConfig{{ID: uuid.New(), DailyQuota: 3}, {ID: uuid.New(), DailyQuota: -1}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := Validate([]domain.TenantConfig{{DailyQuota: 0}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestValidateRejectsNegativeInterval(t *testing.T) {
	err := Validate([]domain.TenantConfig{{ID: uuid.New(), DailyQuota: 5, DistributionIntervalHours: -2}})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	problems, _ := appErr.Details.([]string)
	if len(problems) != 1 || !strings.Contains(problems[0], "distributionIntervalHours must be >= 0, got -2") {
		t.Fatalf("unexpected details: %v", appErr.Details)
	}
	if err := Validate([]domain.TenantConfig{{DailyQuota: 5, DistributionIntervalHours: 0}}); err != nil {
		t.Fatalf("zero interval must be accepted, got %v", err)
	}
}

func TestOrderServesLongestWaitingFirst(t *testing.T) {
	recent := domain.TenantConfig{ID: uuid.New(), LastDistributionAt: at(-time.Hour)}
	older := domain.TenantConfig{ID: uuid.New(), LastDistributionAt: at(-48 * time.Hour)}
	never := domain.TenantConfig{ID: uuid.New()}

	got := Order([]domain.TenantConfig{recent, older, never})
	if got[0].ID != never.ID || got[1].ID != older.ID || got[2].ID != recent.ID {
		t.Fatalf("unexpected order: %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}
}
