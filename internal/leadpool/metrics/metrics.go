// Package metrics holds the Prometheus instruments of the lead pool engines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeadsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpool_leads_claimed_total",
		Help: "Pool leads moved from unowned to locked",
	})

	ClaimContention = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpool_claim_contention_total",
		Help: "Claims lost to a concurrent run",
	})

	LeadsDistributed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpool_leads_distributed_total",
		Help: "Pool leads committed to a tenant with a lead copy",
	})

	DistributionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadpool_distribution_runs_total",
		Help: "Distribution runs by outcome",
	}, []string{"outcome"})

	TenantDeficit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpool_tenant_deficit_leads_total",
		Help: "Leads owed to tenants that the pool could not supply",
	})

	LeadsRecalled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpool_copies_recalled_total",
		Help: "Platform lead copies deleted by recall",
	})

	LeadsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadpool_leads_unlocked_total",
		Help: "Pool leads reset to unowned",
	}, []string{"reason"})

	LeadsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpool_leads_removed_total",
		Help: "Pool leads deleted by cleanup",
	})

	LeadsFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadpool_leads_flagged_total",
		Help: "Quality flags found by cleanup scans",
	}, []string{"flag"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leadpool_operation_duration_seconds",
		Help:    "Duration of pool operations",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"operation"})

	PoolAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leadpool_available_leads",
		Help: "Unowned leads without a hard-fail flag at the last snapshot",
	})

	PoolGap = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leadpool_supply_gap",
		Help: "Available leads minus total active daily quota at the last snapshot",
	})

	MaintenanceMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leadpool_maintenance_mode",
		Help: "1 while maintenance mode is enabled",
	})
)
