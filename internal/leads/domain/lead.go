// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is the central entity of the engine. Derived fields (score,
// temperature, follow-up) are recomputed by the scoring, temperature and
// follow-up packages; callers decide when to persist them.
type Lead struct {
	ID             int64      `json:"id"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	BranchID       *uuid.UUID `json:"branchId,omitempty"`
	AssignedTo     *uuid.UUID `json:"assignedTo,omitempty"`
	CreatedBy      *uuid.UUID `json:"createdBy,omitempty"`
	Source         string     `json:"source"`

	Status         Status      `json:"status"`
	Temperature    Temperature `json:"temperature"`
	Priority       Priority    `json:"priority"`
	LifecycleStage string      `json:"lifecycleStage"`

	CompanySize          string            `json:"companySize"`
	Industry             string            `json:"industry"`
	ContactRole          string            `json:"contactRole"`
	BudgetAmount         int64             `json:"budgetAmount"`
	PurchaseTimelineDays int               `json:"purchaseTimelineDays"`
	ProductInterest      []string          `json:"productInterest"`
	Qualification        Qualification     `json:"qualification"`
	ContentEngagement    ContentEngagement `json:"contentEngagement"`

	LeadScore     int                  `json:"leadScore"`
	ScoringData   ScoringData          `json:"scoringData"`
	ScoreHistory  []ScoreHistoryEntry  `json:"scoreHistory"`
	ChangeHistory []ChangeHistoryEntry `json:"changeHistory"`

	LastContactDate       *time.Time `json:"lastContactDate,omitempty"`
	NextFollowUpDate      *time.Time `json:"nextFollowUpDate,omitempty"`
	TotalInteractions     int        `json:"totalInteractions"`
	TimedResponses        int        `json:"timedResponses"`
	AverageResponseTime   float64    `json:"averageResponseTime"`
	DaysSinceLastResponse int        `json:"daysSinceLastResponse"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Qualification holds the BANT confirmation flags.
type Qualification struct {
	BudgetConfirmed    bool `json:"budgetConfirmed"`
	AuthorityConfirmed bool `json:"authorityConfirmed"`
	NeedConfirmed      bool `json:"needConfirmed"`
	TimelineConfirmed  bool `json:"timelineConfirmed"`
}

// ConfirmedCount returns how many BANT flags are set.
func (q Qualification) ConfirmedCount() int {
	n := 0
	for _, ok := range []bool{q.BudgetConfirmed, q.AuthorityConfirmed, q.NeedConfirmed, q.TimelineConfirmed} {
		if ok {
			n++
		}
	}
	return n
}

// ContentEngagement counts marketing touches tracked outside direct interactions.
type ContentEngagement struct {
	EmailOpens       int `json:"emailOpens"`
	EmailClicks      int `json:"emailClicks"`
	WebsiteVisits    int `json:"websiteVisits"`
	ContentDownloads int `json:"contentDownloads"`
	EventAttendances int `json:"eventAttendances"`
}

// ScoringData is the decomposed score. Each component is within
// [0, MaxComponentScore] and the components sum to the lead score.
type ScoringData struct {
	EngagementScore  int       `json:"engagementScore"`
	DemographicScore int       `json:"demographicScore"`
	BehavioralScore  int       `json:"behavioralScore"`
	FitScore         int       `json:"fitScore"`
	LastCalculated   time.Time `json:"lastCalculated"`
}

// MaxComponentScore bounds each scoring component.
const MaxComponentScore = 25

// MaxLeadScore bounds the composite score.
const MaxLeadScore = 4 * MaxComponentScore

// Total sums the components.
func (s ScoringData) Total() int {
	return s.EngagementScore + s.DemographicScore + s.BehavioralScore + s.FitScore
}

// ScoreHistoryEntry is one append-only score record.
type ScoreHistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
	Reason    string    `json:"reason"`
}

// ChangeHistoryEntry is one append-only status change record.
type ChangeHistoryEntry struct {
	Timestamp   time.Time  `json:"timestamp"`
	OldStatus   Status     `json:"oldStatus"`
	NewStatus   Status     `json:"newStatus"`
	Reason      string     `json:"reason"`
	Description string     `json:"description,omitempty"`
	NextStep    string     `json:"nextStep,omitempty"`
	ActorID     *uuid.UUID `json:"actorId,omitempty"`
}

// Interaction is a single touch point with the lead (call, email, meeting...).
type Interaction struct {
	ID             int64      `json:"id"`
	LeadID         int64      `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	Kind           string     `json:"kind"`
	Direction      string     `json:"direction"`
	ResponseHours  *float64   `json:"responseHours,omitempty"`
	OccurredAt     time.Time  `json:"occurredAt"`
	ActorID        *uuid.UUID `json:"actorId,omitempty"`
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// LastActivityAt is the most recent moment the lead was touched by a human
// or a status change.
func (l Lead) LastActivityAt() time.Time {
	latest := l.UpdatedAt
	if l.LastContactDate != nil && l.LastContactDate.After(latest) {
		latest = *l.LastContactDate
	}
	return latest
}

// IsDeleted reports whether an external collaborator soft-deleted the lead.
func (l Lead) IsDeleted() bool {
	return l.DeletedAt != nil
}
