package service

import (
	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/transport"
)

func mapRun(run domain.DistributionRun) transport.DistributeResponse {
	perTenant := make([]transport.TenantDistributionResponse, len(run.Tenants))
	for i, t := range run.Tenants {
		perTenant[i] = transport.TenantDistributionResponse{
			TenantID:      t.TenantID,
			CompanyName:   t.TenantName,
			Requested:     t.Requested,
			Allocated:     t.Allocated,
			Deficit:       t.Deficit,
			Contended:     t.Contended,
			SkippedReason: t.SkippedReason,
			Errors:        t.Errors,
		}
	}

	details := run.Details
	if details == nil {
		details = []string{}
	}

	return transport.DistributeResponse{
		Outcome:        string(run.Outcome),
		Mode:           string(run.Mode),
		Forced:         run.Forced,
		TotalAllocated: run.TotalAllocated,
		Details:        details,
		PerTenant:      perTenant,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	}
}

func mapSnapshot(snap domain.PoolHealthSnapshot) transport.AnalyticsResponse {
	return transport.AnalyticsResponse{
		Supply: transport.SupplyResponse{
			TotalInPool:  snap.Supply.TotalInPool,
			Locked:       snap.Supply.Locked,
			Distributed:  snap.Supply.Distributed,
			AvailableNow: snap.Supply.AvailableNow,
		},
		Demand: transport.DemandResponse{
			CompaniesCount:  snap.Demand.CompaniesCount,
			TotalDailyQuota: snap.Demand.TotalDailyQuota,
		},
		Health: transport.HealthResponse{
			Status: string(snap.Health.Status),
			Gap:    snap.Health.Gap,
		},
		Distribution: transport.DistributionResponse{
			TotalDistributedInCirculation: snap.Distribution.TotalDistributedInCirculation,
			TotalPrivateUploads:           snap.Distribution.TotalPrivateUploads,
		},
		GeneratedAt: snap.GeneratedAt,
	}
}

func mapTenant(t domain.TenantConfig) transport.TenantResponse {
	return transport.TenantResponse{
		ID:               t.ID,
		CompanyName:      t.Name,
		IsActive:         t.IsActive,
		DailyQuota:       t.DailyQuota,
		IntervalHours:    t.DistributionIntervalHours,
		LastDistribution: t.LastDistributionAt,
		NextDistribution: t.NextDistributionDueAt(),
	}
}
