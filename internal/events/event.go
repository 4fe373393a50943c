// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadpool_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Pool Domain Events
// =============================================================================

// PoolDistributed is published after a distribution run that was not paused.
type PoolDistributed struct {
	BaseEvent
	Outcome        string      `json:"outcome"`
	Mode           string      `json:"mode"`
	Forced         bool        `json:"forced"`
	TotalAllocated int         `json:"totalAllocated"`
	TenantIDs      []uuid.UUID `json:"tenantIds"`
}

func (e PoolDistributed) EventName() string { return "leadpool.distributed" }

// PlatformLeadsRecalled is published after a recall sweep.
type PlatformLeadsRecalled struct {
	BaseEvent
	DeletedCount  int `json:"deletedCount"`
	UnlockedCount int `json:"unlockedCount"`
}

func (e PlatformLeadsRecalled) EventName() string { return "leadpool.recalled" }

// PoolUnlocked is published after locked leads were reset.
type PoolUnlocked struct {
	BaseEvent
	Reason        string `json:"reason"`
	UnlockedCount int    `json:"unlockedCount"`
}

func (e PoolUnlocked) EventName() string { return "leadpool.unlocked" }

// PoolCleaned is published after a cleanup pass removed or reflagged leads.
type PoolCleaned struct {
	BaseEvent
	Scanned int `json:"scanned"`
	Removed int `json:"removed"`
}

func (e PoolCleaned) EventName() string { return "leadpool.cleaned" }

// MaintenanceModeChanged is published when an administrator flips the gate.
type MaintenanceModeChanged struct {
	BaseEvent
	Enabled bool      `json:"enabled"`
	ActorID uuid.UUID `json:"actorId"`
}

func (e MaintenanceModeChanged) EventName() string { return "leadpool.maintenance_changed" }

// LeadsImported is published after new pool leads were stored.
type LeadsImported struct {
	BaseEvent
	Received int `json:"received"`
	Inserted int `json:"inserted"`
}

func (e LeadsImported) EventName() string { return "leadpool.leads_imported" }
