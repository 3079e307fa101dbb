package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type QualificationDTO struct {
	BudgetConfirmed    bool `json:"budgetConfirmed"`
	AuthorityConfirmed bool `json:"authorityConfirmed"`
	NeedConfirmed      bool `json:"needConfirmed"`
	TimelineConfirmed  bool `json:"timelineConfirmed"`
}

type ContentEngagementDTO struct {
	EmailOpens       int `json:"emailOpens" validate:"min=0"`
	EmailClicks      int `json:"emailClicks" validate:"min=0"`
	WebsiteVisits    int `json:"websiteVisits" validate:"min=0"`
	ContentDownloads int `json:"contentDownloads" validate:"min=0"`
	EventAttendances int `json:"eventAttendances" validate:"min=0"`
}

type CreateLeadRequest struct {
	Source               string                `json:"source" validate:"required,min=1,max=100"`
	Priority             string                `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	BranchID             *uuid.UUID            `json:"branchId,omitempty"`
	AssignedTo           *uuid.UUID            `json:"assignedTo,omitempty"`
	CompanySize          string                `json:"companySize,omitempty" validate:"max=50"`
	Industry             string                `json:"industry,omitempty" validate:"max=100"`
	ContactRole          string                `json:"contactRole,omitempty" validate:"max=100"`
	BudgetAmount         int64                 `json:"budgetAmount,omitempty" validate:"min=0"`
	PurchaseTimelineDays int                   `json:"purchaseTimelineDays,omitempty" validate:"min=0,max=3650"`
	ProductInterest      []string              `json:"productInterest,omitempty" validate:"max=20,dive,min=1,max=100"`
	Qualification        QualificationDTO      `json:"qualification"`
	ContentEngagement    *ContentEngagementDTO `json:"contentEngagement,omitempty"`
}

type UpdateLeadRequest struct {
	Priority             *string               `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	BranchID             *uuid.UUID            `json:"branchId,omitempty"`
	AssignedTo           *uuid.UUID            `json:"assignedTo,omitempty"`
	CompanySize          *string               `json:"companySize,omitempty" validate:"omitempty,max=50"`
	Industry             *string               `json:"industry,omitempty" validate:"omitempty,max=100"`
	ContactRole          *string               `json:"contactRole,omitempty" validate:"omitempty,max=100"`
	BudgetAmount         *int64                `json:"budgetAmount,omitempty" validate:"omitempty,min=0"`
	PurchaseTimelineDays *int                  `json:"purchaseTimelineDays,omitempty" validate:"omitempty,min=0,max=3650"`
	ProductInterest      *[]string             `json:"productInterest,omitempty" validate:"omitempty,max=20,dive,min=1,max=100"`
	Qualification        *QualificationDTO     `json:"qualification,omitempty"`
	ContentEngagement    *ContentEngagementDTO `json:"contentEngagement,omitempty"`
}

type ChangeStatusRequest struct {
	Status      string `json:"status" validate:"required,oneof=PENDING REVIEW APPROVED CONVERTED DECLINED CANCELLED"`
	Reason      string `json:"reason" validate:"required,min=1,max=500"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	NextStep    string `json:"nextStep,omitempty" validate:"max=500"`
}

type RecordInteractionRequest struct {
	Kind          string     `json:"kind" validate:"required,oneof=call email meeting message demo note"`
	Direction     string     `json:"direction" validate:"required,oneof=inbound outbound"`
	ResponseHours *float64   `json:"responseHours,omitempty" validate:"omitempty,min=0"`
	OccurredAt    *time.Time `json:"occurredAt,omitempty"`
}

type ListLeadsRequest struct {
	Status      string `form:"status" validate:"omitempty,oneof=PENDING REVIEW APPROVED CONVERTED DECLINED CANCELLED"`
	Temperature string `form:"temperature" validate:"omitempty,oneof=HOT WARM COLD FROZEN"`
	AssignedTo  string `form:"assignedTo" validate:"omitempty,uuid"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// Response DTOs

type ScoreBreakdown struct {
	Engagement     int       `json:"engagement"`
	Demographic    int       `json:"demographic"`
	Behavioral     int       `json:"behavioral"`
	Fit            int       `json:"fit"`
	LastCalculated time.Time `json:"lastCalculated"`
}

type StatusChangeResponse struct {
	Timestamp   time.Time  `json:"timestamp"`
	OldStatus   string     `json:"oldStatus"`
	NewStatus   string     `json:"newStatus"`
	Reason      string     `json:"reason"`
	Description string     `json:"description,omitempty"`
	NextStep    string     `json:"nextStep,omitempty"`
	ActorID     *uuid.UUID `json:"actorId,omitempty"`
}

type LeadResponse struct {
	ID                    int64                  `json:"id"`
	OrganizationID        uuid.UUID              `json:"organizationId"`
	BranchID              *uuid.UUID             `json:"branchId,omitempty"`
	AssignedTo            *uuid.UUID             `json:"assignedTo,omitempty"`
	CreatedBy             *uuid.UUID             `json:"createdBy,omitempty"`
	Source                string                 `json:"source"`
	Status                string                 `json:"status"`
	Temperature           string                 `json:"temperature"`
	Priority              string                 `json:"priority"`
	LifecycleStage        string                 `json:"lifecycleStage"`
	CompanySize           string                 `json:"companySize,omitempty"`
	Industry              string                 `json:"industry,omitempty"`
	ContactRole           string                 `json:"contactRole,omitempty"`
	BudgetAmount          int64                  `json:"budgetAmount"`
	PurchaseTimelineDays  int                    `json:"purchaseTimelineDays"`
	ProductInterest       []string               `json:"productInterest"`
	Qualification         QualificationDTO       `json:"qualification"`
	ContentEngagement     ContentEngagementDTO   `json:"contentEngagement"`
	LeadScore             int                    `json:"leadScore"`
	Score                 ScoreBreakdown         `json:"score"`
	StatusHistory         []StatusChangeResponse `json:"statusHistory"`
	LastContactDate       *time.Time             `json:"lastContactDate,omitempty"`
	NextFollowUpDate      *time.Time             `json:"nextFollowUpDate,omitempty"`
	TotalInteractions     int                    `json:"totalInteractions"`
	AverageResponseTime   float64                `json:"averageResponseTime"`
	DaysSinceLastResponse int                    `json:"daysSinceLastResponse"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type InteractionResponse struct {
	ID            int64      `json:"id"`
	LeadID        int64      `json:"leadId"`
	Kind          string     `json:"kind"`
	Direction     string     `json:"direction"`
	ResponseHours *float64   `json:"responseHours,omitempty"`
	OccurredAt    time.Time  `json:"occurredAt"`
	ActorID       *uuid.UUID `json:"actorId,omitempty"`
}

// ScorePreviewResponse shows what a recompute would produce without saving it.
type ScorePreviewResponse struct {
	LeadID           int64          `json:"leadId"`
	Score            int            `json:"score"`
	Breakdown        ScoreBreakdown `json:"breakdown"`
	Factors          map[string]int `json:"factors"`
	Temperature      string         `json:"temperature"`
	Status           string         `json:"status"`
	NextFollowUpDate *time.Time     `json:"nextFollowUpDate,omitempty"`
}
