// Package service is the administrative facade over the pool engines. The
// HTTP handler, the scheduler worker and the admin CLI all go through it.
package service

import (
	"context"
	"errors"
	"time"

	"leadpool_backend/internal/events"
	"leadpool_backend/internal/leadpool/allocation"
	"leadpool_backend/internal/leadpool/analytics"
	"leadpool_backend/internal/leadpool/cleanup"
	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/maintenance"
	"leadpool_backend/internal/leadpool/quality"
	"leadpool_backend/internal/leadpool/recall"
	"leadpool_backend/internal/leadpool/repository"
	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/platform/apperr"
	"leadpool_backend/platform/logger"
	"leadpool_backend/platform/phone"

	"github.com/google/uuid"
)

const msgTenantNotFound = "company not found"

// Options tune the engines the service drives.
type Options struct {
	Mode           domain.Mode
	Concurrency    int
	PurgeSoftFlags bool
	Quarantine     cleanup.Quarantine
	PhoneRegion    string
}

// Service provides the lead pool administrative operations.
type Service struct {
	store      repository.Store
	inv        *inventory.Manager
	gate       maintenance.Gate
	classifier *quality.Classifier
	phones     *phone.Normalizer
	allocation *allocation.Engine
	recall     *recall.Engine
	cleanup    *cleanup.Engine
	analytics  *analytics.Service
	eventBus   events.Bus
	mode       domain.Mode
	log        *logger.Logger
}

// New wires the engines on top of one store and inventory manager.
func New(store repository.Store, inv *inventory.Manager, gate maintenance.Gate, classifier *quality.Classifier, eventBus events.Bus, log *logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if classifier == nil {
		classifier = quality.Default()
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeTopUp
	}

	return &Service{
		store:      store,
		inv:        inv,
		gate:       gate,
		classifier: classifier,
		phones:     phone.NewNormalizer(opts.PhoneRegion),
		allocation: allocation.NewEngine(inv, store, gate, classifier, log, opts.Concurrency),
		recall:     recall.NewEngine(inv, store, log),
		cleanup: cleanup.NewEngine(inv, gate, classifier, log,
			cleanup.WithQuarantine(opts.Quarantine),
			cleanup.WithPurgeSoftFlags(opts.PurgeSoftFlags)),
		analytics: analytics.New(inv, store),
		eventBus:  eventBus,
		mode:      opts.Mode,
		log:       log.WithComponent("leadpool"),
	}
}

// DistributeDailyLeads runs one distribution pass over every tenant. An
// empty mode uses the configured default.
func (s *Service) DistributeDailyLeads(ctx context.Context, force bool, mode string) (transport.DistributeResponse, error) {
	runMode := s.mode
	if mode != "" {
		runMode = domain.ParseMode(mode)
	}

	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return transport.DistributeResponse{}, s.storeError("list companies", err)
	}

	run, err := s.allocation.Run(ctx, tenants, allocation.Options{Mode: runMode, Force: force})
	if err != nil {
		return transport.DistributeResponse{}, s.storeError("distribute leads", err)
	}

	if run.Outcome != domain.OutcomeMaintenancePaused {
		ids := make([]uuid.UUID, 0, len(run.Tenants))
		for _, t := range run.Tenants {
			if t.Allocated > 0 {
				ids = append(ids, t.TenantID)
			}
		}
		s.publish(ctx, events.PoolDistributed{
			BaseEvent:      events.NewBaseEvent(),
			Outcome:        string(run.Outcome),
			Mode:           string(run.Mode),
			Forced:         run.Forced,
			TotalAllocated: run.TotalAllocated,
			TenantIDs:      ids,
		})
	}

	return mapRun(run), nil
}

// RecallAllPlatformLeads deletes every platform-distributed copy and frees
// the pool leads. Callers confirm the intent before getting here.
func (s *Service) RecallAllPlatformLeads(ctx context.Context) (transport.RecallResponse, error) {
	report, err := s.recall.RecallAll(ctx)
	if err != nil {
		return transport.RecallResponse{}, s.storeError("recall platform leads", err)
	}

	s.publish(ctx, events.PlatformLeadsRecalled{
		BaseEvent:     events.NewBaseEvent(),
		DeletedCount:  report.DeletedCount,
		UnlockedCount: report.UnlockedCount,
	})

	return transport.RecallResponse{
		Message:       "Recalled platform leads",
		DeletedCount:  report.DeletedCount,
		UnlockedCount: report.UnlockedCount,
	}, nil
}

// ForceUnlockPool resets every locked lead.
func (s *Service) ForceUnlockPool(ctx context.Context) (transport.UnlockResponse, error) {
	report, err := s.recall.ForceUnlockAll(ctx)
	if err != nil {
		return transport.UnlockResponse{}, s.storeError("unlock pool", err)
	}
	s.publishUnlock(ctx, "force", report.UnlockedCount)
	return transport.UnlockResponse{Message: report.Message, UnlockedCount: report.UnlockedCount}, nil
}

// UnlockStale resets leads locked for longer than olderThan.
func (s *Service) UnlockStale(ctx context.Context, olderThan time.Duration) (transport.UnlockResponse, error) {
	report, err := s.recall.UnlockStale(ctx, olderThan)
	if err != nil {
		return transport.UnlockResponse{}, s.storeError("unlock stale leads", err)
	}
	if report.UnlockedCount > 0 {
		s.publishUnlock(ctx, "stale", report.UnlockedCount)
	}
	return transport.UnlockResponse{Message: report.Message, UnlockedCount: report.UnlockedCount}, nil
}

// CleanupBadLeads purges unsellable leads from the pool.
func (s *Service) CleanupBadLeads(ctx context.Context) (transport.CleanupResponse, error) {
	report, err := s.cleanup.CleanupBad(ctx)
	if err != nil {
		return transport.CleanupResponse{}, s.storeError("clean up pool", err)
	}

	if report.Outcome != domain.OutcomeMaintenancePaused {
		s.publish(ctx, events.PoolCleaned{
			BaseEvent: events.NewBaseEvent(),
			Scanned:   report.Scanned,
			Removed:   report.Removed,
		})
	}

	return transport.CleanupResponse{
		Outcome: string(report.Outcome),
		Message: report.Message,
		Stats:   transport.CleanupStats(report.Stats),
		Scanned: report.Scanned,
		Removed: report.Removed,
	}, nil
}

// GetLeadSupplyAnalytics returns the pool health snapshot.
func (s *Service) GetLeadSupplyAnalytics(ctx context.Context) (transport.AnalyticsResponse, error) {
	snap, err := s.analytics.Snapshot(ctx)
	if err != nil {
		return transport.AnalyticsResponse{}, s.storeError("load analytics", err)
	}
	return mapSnapshot(snap), nil
}

// GetCompanyDistributionStatus lists every company with its lead counts.
func (s *Service) GetCompanyDistributionStatus(ctx context.Context) (transport.CompaniesResponse, error) {
	rows, err := s.analytics.CompanyStatus(ctx)
	if err != nil {
		return transport.CompaniesResponse{}, s.storeError("load company status", err)
	}

	out := transport.CompaniesResponse{Companies: make([]transport.CompanyStatusResponse, len(rows))}
	for i, row := range rows {
		out.Companies[i] = transport.CompanyStatusResponse(row)
	}
	return out, nil
}

// GetMaintenanceMode reports whether distribution and cleanup are paused.
func (s *Service) GetMaintenanceMode(ctx context.Context) (transport.MaintenanceResponse, error) {
	enabled, err := s.gate.Enabled(ctx)
	if err != nil {
		return transport.MaintenanceResponse{}, s.storeError("read maintenance mode", err)
	}
	return transport.MaintenanceResponse{Enabled: enabled}, nil
}

// SetMaintenanceMode pauses or resumes distribution and cleanup.
func (s *Service) SetMaintenanceMode(ctx context.Context, enabled bool, actorID uuid.UUID) (transport.MaintenanceResponse, error) {
	if err := s.gate.Set(ctx, enabled); err != nil {
		return transport.MaintenanceResponse{}, s.storeError("set maintenance mode", err)
	}

	s.log.Info("maintenance mode changed", "enabled", enabled, "actorId", actorID)
	s.publish(ctx, events.MaintenanceModeChanged{
		BaseEvent: events.NewBaseEvent(),
		Enabled:   enabled,
		ActorID:   actorID,
	})
	return transport.MaintenanceResponse{Enabled: enabled}, nil
}

// SetTenantActive includes or excludes a company from distribution.
func (s *Service) SetTenantActive(ctx context.Context, tenantID uuid.UUID, active bool) (transport.TenantResponse, error) {
	tenant, err := s.store.SetTenantActive(ctx, tenantID, active)
	if err != nil {
		return transport.TenantResponse{}, s.storeError("update company", err)
	}
	return mapTenant(tenant), nil
}

// SetTenantQuota changes a company's daily quota and, when intervalHours is
// positive, its distribution interval.
func (s *Service) SetTenantQuota(ctx context.Context, tenantID uuid.UUID, dailyQuota, intervalHours int) (transport.TenantResponse, error) {
	if dailyQuota < 0 {
		return transport.TenantResponse{}, apperr.Validation("dailyQuota must not be negative")
	}
	if intervalHours < 0 {
		return transport.TenantResponse{}, apperr.Validation("distributionIntervalHours must not be negative")
	}

	tenant, err := s.store.SetTenantQuota(ctx, tenantID, dailyQuota, intervalHours)
	if err != nil {
		return transport.TenantResponse{}, s.storeError("update company", err)
	}
	return mapTenant(tenant), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, event)
}

func (s *Service) publishUnlock(ctx context.Context, reason string, count int) {
	s.publish(ctx, events.PoolUnlocked{BaseEvent: events.NewBaseEvent(), Reason: reason, UnlockedCount: count})
}

// storeError keeps typed errors and maps the store's not-found sentinel.
func (s *Service) storeError(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgTenantNotFound).WithOp(op)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.log.DatabaseError(op, err)
	return apperr.Unavailable("lead store unavailable", err).WithOp(op)
}
