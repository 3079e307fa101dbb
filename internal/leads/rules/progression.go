package rules

import (
	"fmt"
	"time"

	"leadflow_backend/internal/leads/domain"
)

// Progression holds the thresholds of the automatic status rules.
type Progression struct {
	PendingReviewScore    int           `yaml:"pending_review_score"`
	PendingReviewMaxAge   time.Duration `yaml:"pending_review_max_age"`
	PendingReviewAnyScore int           `yaml:"pending_review_any_score"`

	ReviewApproveScore  int           `yaml:"review_approve_score"`
	ReviewApproveWithin time.Duration `yaml:"review_approve_within"`
	ReviewDeclineBelow  int           `yaml:"review_decline_below"`
	ReviewStalledAfter  time.Duration `yaml:"review_stalled_after"`

	ApprovedRegressBelow int           `yaml:"approved_regress_below"`
	ApprovedStaleAfter   time.Duration `yaml:"approved_stale_after"`
}

// DefaultProgression returns the built-in status rules.
func DefaultProgression() Progression {
	return Progression{
		PendingReviewScore:    70,
		PendingReviewMaxAge:   72 * time.Hour,
		PendingReviewAnyScore: 80,
		ReviewApproveScore:    85,
		ReviewApproveWithin:   48 * time.Hour,
		ReviewDeclineBelow:    40,
		ReviewStalledAfter:    7 * 24 * time.Hour,
		ApprovedRegressBelow:  30,
		ApprovedStaleAfter:    14 * 24 * time.Hour,
	}
}

// Transition is a status change proposed by the progression rules.
type Transition struct {
	To     domain.Status
	Reason string
}

// Evaluate returns the status change the rules call for, if any. The lead
// score must already be fresh. Time in status is measured from UpdatedAt.
func (p Progression) Evaluate(lead domain.Lead, now time.Time) (Transition, bool) {
	inStatus := now.Sub(lead.UpdatedAt)
	score := lead.LeadScore

	switch lead.Status {
	case domain.StatusPending:
		age := now.Sub(lead.CreatedAt)
		if score >= p.PendingReviewScore && age <= p.PendingReviewMaxAge {
			return Transition{To: domain.StatusReview, Reason: fmt.Sprintf("score %d on a lead younger than %s", score, p.PendingReviewMaxAge)}, true
		}
		if score >= p.PendingReviewAnyScore {
			return Transition{To: domain.StatusReview, Reason: fmt.Sprintf("score %d reached review threshold", score)}, true
		}

	case domain.StatusReview:
		if score >= p.ReviewApproveScore && inStatus <= p.ReviewApproveWithin {
			return Transition{To: domain.StatusApproved, Reason: fmt.Sprintf("score %d within %s of review", score, p.ReviewApproveWithin)}, true
		}
		if score < p.ReviewDeclineBelow && inStatus >= p.ReviewStalledAfter {
			return Transition{To: domain.StatusDeclined, Reason: fmt.Sprintf("score %d with review stalled for %s", score, p.ReviewStalledAfter)}, true
		}

	case domain.StatusApproved:
		if score < p.ApprovedRegressBelow && inStatus >= p.ApprovedStaleAfter {
			return Transition{To: domain.StatusReview, Reason: fmt.Sprintf("score regressed to %d after %s approved", score, p.ApprovedStaleAfter)}, true
		}
	}

	return Transition{}, false
}
