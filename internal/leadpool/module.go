// Package leadpool provides the lead pool bounded context module: shared
// lead inventory distributed to tenant companies under daily quotas.
package leadpool

import (
	"fmt"

	"leadpool_backend/internal/events"
	apphttp "leadpool_backend/internal/http"
	"leadpool_backend/internal/leadpool/cleanup"
	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/handler"
	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/maintenance"
	"leadpool_backend/internal/leadpool/quality"
	"leadpool_backend/internal/leadpool/repository"
	"leadpool_backend/internal/leadpool/service"
	"leadpool_backend/platform/config"
	"leadpool_backend/platform/logger"
	"leadpool_backend/platform/validator"
)

// Module is the lead pool bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the lead pool module with all its
// dependencies. quarantine may be nil when no archive bucket is configured.
func NewModule(
	store repository.Store,
	gate maintenance.Gate,
	eventBus events.Bus,
	val *validator.Validator,
	cfg config.PoolConfig,
	quarantine cleanup.Quarantine,
	log *logger.Logger,
) (*Module, error) {
	rules, err := quality.LoadRules(cfg.GetQualityRulesFile())
	if err != nil {
		return nil, fmt.Errorf("load quality rules: %w", err)
	}

	inv := inventory.New(store, log,
		inventory.WithBatchSize(cfg.GetPoolBatchSize()),
		inventory.WithPageSize(cfg.GetPoolScanPageSize()),
	)
	svc := service.New(store, inv, gate, quality.NewClassifier(rules), eventBus, log, service.Options{
		Mode:           domain.ParseMode(cfg.GetDistributionMode()),
		Concurrency:    cfg.GetDistributionConcurrency(),
		PurgeSoftFlags: cfg.GetCleanupPurgeSoftFlags(),
		Quarantine:     quarantine,
		PhoneRegion:    cfg.GetPhoneDefaultRegion(),
	})

	return &Module{handler: handler.New(svc, val), service: svc}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leadpool"
}

// Service returns the service layer for the scheduler and admin CLI.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead pool routes under /api/v1/admin/lead-pool.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/lead-pool")
	bulk := group.Group("")
	if ctx.AdminRateLimiter != nil {
		bulk.Use(ctx.AdminRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(group, bulk)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
