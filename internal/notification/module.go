// Package notification turns lead pool domain events into an administrator
// audit trail. It is not HTTP-facing; it only subscribes to the event bus.
package notification

import (
	"context"

	"leadpool_backend/internal/events"
	"leadpool_backend/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var auditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leadpool_audit_events_total",
	Help: "Lead pool domain events recorded in the audit log.",
}, []string{"event"})

// Module records lead pool events.
type Module struct {
	log *logger.Logger
}

// New creates the audit notifier.
func New(log *logger.Logger) *Module {
	if log == nil {
		log = logger.Nop()
	}
	return &Module{log: log.WithComponent("audit")}
}

// RegisterHandlers subscribes to all lead pool domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.PoolDistributed{}.EventName(), m)
	bus.Subscribe(events.PlatformLeadsRecalled{}.EventName(), m)
	bus.Subscribe(events.PoolUnlocked{}.EventName(), m)
	bus.Subscribe(events.PoolCleaned{}.EventName(), m)
	bus.Subscribe(events.MaintenanceModeChanged{}.EventName(), m)
	bus.Subscribe(events.LeadsImported{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	log := m.log.WithContext(ctx)

	switch e := event.(type) {
	case events.PoolDistributed:
		log.Info("pool distributed",
			"outcome", e.Outcome, "mode", e.Mode, "forced", e.Forced,
			"allocated", e.TotalAllocated, "tenants", len(e.TenantIDs))
	case events.PlatformLeadsRecalled:
		log.Warn("platform leads recalled", "deleted", e.DeletedCount, "unlocked", e.UnlockedCount)
	case events.PoolUnlocked:
		log.Info("pool unlocked", "reason", e.Reason, "unlocked", e.UnlockedCount)
	case events.PoolCleaned:
		log.Info("pool cleaned", "scanned", e.Scanned, "removed", e.Removed)
	case events.MaintenanceModeChanged:
		log.Warn("maintenance mode changed", "enabled", e.Enabled, "actorId", e.ActorID.String())
	case events.LeadsImported:
		log.Info("leads imported", "received", e.Received, "inserted", e.Inserted)
	default:
		return nil
	}

	auditEvents.WithLabelValues(event.EventName()).Inc()
	return nil
}
