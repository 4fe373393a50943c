package transport

import (
	"time"

	"github.com/google/uuid"
)

// ---- distribution ----

type DistributeRequest struct {
	Force bool   `json:"force"`
	Mode  string `json:"mode,omitempty" validate:"omitempty,oneof=top_up rotate"`
}

type TenantDistributionResponse struct {
	TenantID      uuid.UUID `json:"tenantId"`
	CompanyName   string    `json:"companyName"`
	Requested     int       `json:"requested"`
	Allocated     int       `json:"allocated"`
	Deficit       int       `json:"deficit"`
	Contended     int       `json:"contended"`
	SkippedReason string    `json:"skippedReason,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
}

type DistributeResponse struct {
	Outcome        string                       `json:"outcome"`
	Mode           string                       `json:"mode"`
	Forced         bool                         `json:"forced"`
	TotalAllocated int                          `json:"totalAllocated"`
	Details        []string                     `json:"details"`
	PerTenant      []TenantDistributionResponse `json:"perTenant"`
	StartedAt      time.Time                    `json:"startedAt"`
	FinishedAt     time.Time                    `json:"finishedAt"`
}

// ---- recall / unlock ----

type RecallRequest struct {
	Confirm bool `json:"confirm" validate:"required"`
}

type RecallResponse struct {
	Message       string `json:"message"`
	DeletedCount  int    `json:"deletedCount"`
	UnlockedCount int    `json:"unlockedCount"`
}

type UnlockResponse struct {
	Message       string `json:"message"`
	UnlockedCount int    `json:"unlockedCount"`
}

// ---- cleanup ----

type CleanupStats struct {
	MissingContact    int `json:"missingContact"`
	TestData          int `json:"testData"`
	MissingNames      int `json:"missingNames"`
	PlaceholderEmails int `json:"placeholderEmails"`
	ShortPhones       int `json:"shortPhones"`
	DuplicatePhones   int `json:"duplicatePhones"`
}

type CleanupResponse struct {
	Outcome string       `json:"outcome"`
	Message string       `json:"message"`
	Stats   CleanupStats `json:"stats"`
	Scanned int          `json:"scanned"`
	Removed int          `json:"removed"`
}

// ---- analytics ----

type SupplyResponse struct {
	TotalInPool  int `json:"totalInPool"`
	Locked       int `json:"locked"`
	Distributed  int `json:"distributed"`
	AvailableNow int `json:"availableNow"`
}

type DemandResponse struct {
	CompaniesCount  int `json:"companiesCount"`
	TotalDailyQuota int `json:"totalDailyQuota"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Gap    int    `json:"gap"`
}

type DistributionResponse struct {
	TotalDistributedInCirculation int `json:"totalDistributedInCirculation"`
	TotalPrivateUploads           int `json:"totalPrivateUploads"`
}

type AnalyticsResponse struct {
	Supply       SupplyResponse       `json:"supply"`
	Demand       DemandResponse       `json:"demand"`
	Health       HealthResponse       `json:"health"`
	Distribution DistributionResponse `json:"distribution"`
	GeneratedAt  time.Time            `json:"generatedAt"`
}

// ---- companies ----

type CompanyStatusResponse struct {
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

type CompaniesResponse struct {
	Companies []CompanyStatusResponse `json:"companies"`
}

type SetTenantActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type SetTenantQuotaRequest struct {
	DailyQuota    *int `json:"dailyQuota" validate:"required,min=0,max=100000"`
	IntervalHours int  `json:"distributionIntervalHours,omitempty" validate:"omitempty,min=1,max=720"`
}

type TenantResponse struct {
	ID               uuid.UUID  `json:"id"`
	CompanyName      string     `json:"companyName"`
	IsActive         bool       `json:"isActive"`
	DailyQuota       int        `json:"dailyQuota"`
	IntervalHours    int        `json:"distributionIntervalHours"`
	LastDistribution *time.Time `json:"lastDistribution"`
	NextDistribution *time.Time `json:"nextDistribution"`
}

// ---- maintenance ----

type MaintenanceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type MaintenanceResponse struct {
	Enabled bool `json:"enabled"`
}

// ---- import ----

type ImportLead struct {
	FirstName       string `json:"firstName" validate:"max=100"`
	LastName        string `json:"lastName" validate:"max=100"`
	Email           string `json:"email" validate:"max=254"`
	Phone           string `json:"phone" validate:"max=50"`
	City            string `json:"city" validate:"max=120"`
	State           string `json:"state" validate:"max=60"`
	DriverType      string `json:"driverType" validate:"max=60"`
	ExperienceYears int    `json:"experienceYears" validate:"min=0,max=80"`
}

type ImportLeadsRequest struct {
	Leads []ImportLead `json:"leads" validate:"required,min=1,max=1000,dive"`
}

type ImportLeadsResponse struct {
	Received   int `json:"received"`
	Inserted   int `json:"inserted"`
	Flagged    int `json:"flagged"`
	Unsellable int `json:"unsellable"`
}
