// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus the leads module publishes on.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Event names, shared by publishers and subscribers.
const (
	LeadCreatedName            = "leads.lead.created"
	LeadUpdatedName            = "leads.lead.updated"
	LeadStatusChangedName      = "leads.lead.status_changed"
	LeadViewedName             = "leads.lead.viewed"
	LeadTemperatureChangedName = "leads.lead.temperature_changed"
	LeadScoreRecalculatedName  = "leads.lead.score_recalculated"
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published after a new lead is committed.
type LeadCreated struct {
	BaseEvent
	LeadID     int64      `json:"leadId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	CreatedBy  *uuid.UUID `json:"createdBy,omitempty"`
	Source     string     `json:"source"`
}

func (e LeadCreated) EventName() string { return LeadCreatedName }
func (e LeadCreated) Tenant() uuid.UUID { return e.TenantID }

// LeadUpdated is published after a field update or a recorded interaction.
type LeadUpdated struct {
	BaseEvent
	LeadID        int64      `json:"leadId"`
	TenantID      uuid.UUID  `json:"tenantId"`
	ActorID       *uuid.UUID `json:"actorId,omitempty"`
	ChangedFields []string   `json:"changedFields"`
}

func (e LeadUpdated) EventName() string { return LeadUpdatedName }
func (e LeadUpdated) Tenant() uuid.UUID { return e.TenantID }

// LeadStatusChanged is published after a manual or automated status move.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     int64      `json:"leadId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Reason     string     `json:"reason"`
	Automated  bool       `json:"automated"`
}

func (e LeadStatusChanged) EventName() string { return LeadStatusChangedName }
func (e LeadStatusChanged) Tenant() uuid.UUID { return e.TenantID }

// LeadViewed is published when a user reads a lead.
type LeadViewed struct {
	BaseEvent
	LeadID   int64      `json:"leadId"`
	TenantID uuid.UUID  `json:"tenantId"`
	ViewerID *uuid.UUID `json:"viewerId,omitempty"`
}

func (e LeadViewed) EventName() string { return LeadViewedName }
func (e LeadViewed) Tenant() uuid.UUID { return e.TenantID }

// LeadTemperatureChanged is published when a recompute moves the temperature.
type LeadTemperatureChanged struct {
	BaseEvent
	LeadID     int64      `json:"leadId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	From       string     `json:"from"`
	To         string     `json:"to"`
}

func (e LeadTemperatureChanged) EventName() string { return LeadTemperatureChangedName }
func (e LeadTemperatureChanged) Tenant() uuid.UUID { return e.TenantID }

// LeadScoreRecalculated is published after a recompute persisted a new score.
type LeadScoreRecalculated struct {
	BaseEvent
	LeadID   int64     `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Score    int       `json:"score"`
	Reason   string    `json:"reason"`
}

func (e LeadScoreRecalculated) EventName() string { return LeadScoreRecalculatedName }
func (e LeadScoreRecalculated) Tenant() uuid.UUID { return e.TenantID }
