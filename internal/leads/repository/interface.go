package repository

import (
	"context"
	"time"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
}

// ActivePager pages through leads eligible for batch re-evaluation.
type ActivePager interface {
	ListActivePage(ctx context.Context, filter PageFilter) ([]domain.Lead, error)
}

// TenantLister enumerates tenants that have active leads.
type TenantLister interface {
	ListActiveTenants(ctx context.Context) ([]uuid.UUID, error)
}

// LeadWriter provides user-driven write operations.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (domain.Lead, error)
	UpdateFields(ctx context.Context, tenantID uuid.UUID, id int64, params UpdateLeadParams) (domain.Lead, error)
}

// StatusWriter changes status and appends the matching history entry
// atomically. It returns ErrConflict when the lead is no longer in
// entry.OldStatus.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, id int64, entry domain.ChangeHistoryEntry) error
}

// EvaluationWriter persists a full pipeline pass atomically. It returns
// ErrConflict when the lead's status moved since the pass read it.
type EvaluationWriter interface {
	SaveEvaluation(ctx context.Context, tenantID uuid.UUID, id int64, ev Evaluation) error
}

// InteractionStore records and reads lead interactions.
type InteractionStore interface {
	RecordInteraction(ctx context.Context, params RecordInteractionParams) (domain.Interaction, error)
	ListInteractionsSince(ctx context.Context, tenantID uuid.UUID, leadID int64, since time.Time) ([]domain.Interaction, error)
}

// LeadsRepository combines all lead-related repository interfaces.
type LeadsRepository interface {
	LeadReader
	ActivePager
	TenantLister
	LeadWriter
	StatusWriter
	EvaluationWriter
	InteractionStore
}

// Ensure Repository implements LeadsRepository
var _ LeadsRepository = (*Repository)(nil)
