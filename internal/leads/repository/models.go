package repository

import (
	"time"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ListParams filters the offset-paged lead listing used by the API.
type ListParams struct {
	TenantID    uuid.UUID
	Status      *domain.Status
	Temperature *domain.Temperature
	AssignedTo  *uuid.UUID
	Offset      int
	Limit       int
}

// PageFilter selects a keyset page of active leads. A nil TenantID spans
// every tenant. Pages are ordered by id; pass the last id seen as AfterID.
type PageFilter struct {
	TenantID *uuid.UUID
	AfterID  int64
	Limit    int
}

type CreateLeadParams struct {
	OrganizationID       uuid.UUID
	BranchID             *uuid.UUID
	AssignedTo           *uuid.UUID
	CreatedBy            *uuid.UUID
	Source               string
	Status               domain.Status
	Temperature          domain.Temperature
	Priority             domain.Priority
	LifecycleStage       string
	CompanySize          string
	Industry             string
	ContactRole          string
	BudgetAmount         int64
	PurchaseTimelineDays int
	ProductInterest      []string
	Qualification        domain.Qualification
	ContentEngagement    domain.ContentEngagement
	NextFollowUpDate     *time.Time
	ChangeHistory        []domain.ChangeHistoryEntry
}

// UpdateLeadParams is a partial update; nil fields are left untouched.
type UpdateLeadParams struct {
	BranchID             *uuid.UUID
	AssignedTo           *uuid.UUID
	Priority             *domain.Priority
	CompanySize          *string
	Industry             *string
	ContactRole          *string
	BudgetAmount         *int64
	PurchaseTimelineDays *int
	ProductInterest      *[]string
	Qualification        *domain.Qualification
	ContentEngagement    *domain.ContentEngagement
}

// ChangedFields lists the column-level fields set on the update.
func (p UpdateLeadParams) ChangedFields() []string {
	fields := make([]string, 0)
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.BranchID != nil, "branchId")
	add(p.AssignedTo != nil, "assignedTo")
	add(p.Priority != nil, "priority")
	add(p.CompanySize != nil, "companySize")
	add(p.Industry != nil, "industry")
	add(p.ContactRole != nil, "contactRole")
	add(p.BudgetAmount != nil, "budgetAmount")
	add(p.PurchaseTimelineDays != nil, "purchaseTimelineDays")
	add(p.ProductInterest != nil, "productInterest")
	add(p.Qualification != nil, "qualification")
	add(p.ContentEngagement != nil, "contentEngagement")
	return fields
}

// Derived carries the recomputed fields of one pipeline pass.
type Derived struct {
	LeadScore             int
	ScoringData           domain.ScoringData
	Temperature           domain.Temperature
	NextFollowUpDate      *time.Time
	DaysSinceLastResponse int
}

// Evaluation is everything one pipeline pass writes back. PriorStatus is the
// status the pass was computed from; StatusChange is nil when the pass left
// the status alone.
type Evaluation struct {
	PriorStatus  domain.Status
	StatusChange *domain.ChangeHistoryEntry
	Derived      Derived
	ScoreEntry   domain.ScoreHistoryEntry
}

type RecordInteractionParams struct {
	LeadID         int64
	OrganizationID uuid.UUID
	Kind           string
	Direction      string
	ResponseHours  *float64
	OccurredAt     time.Time
	ActorID        *uuid.UUID
}
