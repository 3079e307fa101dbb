// Package scoring computes the composite lead score. The engine is pure:
// every input, including the evaluation time, is passed in explicitly.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// Result is the decomposed output of one scoring pass.
type Result struct {
	Total       int
	Engagement  int
	Demographic int
	Behavioral  int
	Fit         int
	Factors     map[string]int
}

// ScoringData converts the result into the persisted breakdown.
func (r Result) ScoringData(at time.Time) domain.ScoringData {
	return domain.ScoringData{
		EngagementScore:  r.Engagement,
		DemographicScore: r.Demographic,
		BehavioralScore:  r.Behavioral,
		FitScore:         r.Fit,
		LastCalculated:   at,
	}
}

// Engine scores leads against a Profile.
type Engine struct {
	profile Profile
}

// NewEngine creates a scoring engine.
func NewEngine(profile Profile) *Engine {
	return &Engine{profile: profile}
}

// Profile returns the weights in use.
func (e *Engine) Profile() Profile {
	return e.profile
}

// Compute scores a lead with its interaction history as of now.
// A nil lead or a lead without tenant yields a validation error; there is
// no partial result.
func (e *Engine) Compute(lead *domain.Lead, interactions []domain.Interaction, now time.Time) (Result, error) {
	if lead == nil {
		return Result{}, apperr.Validation("lead is required for scoring")
	}
	if lead.OrganizationID == uuid.Nil {
		return Result{}, apperr.Validation("lead has no tenant").WithOp("scoring.Compute")
	}

	factors := map[string]int{}
	engagement := clampComponent(e.engagement(lead, interactions, now, factors))
	demographic := clampComponent(e.demographic(lead, factors))
	behavioral := clampComponent(e.behavioral(lead, factors))
	fit := clampComponent(e.fit(lead, factors))

	return Result{
		Total:       engagement + demographic + behavioral + fit,
		Engagement:  engagement,
		Demographic: demographic,
		Behavioral:  behavioral,
		Fit:         fit,
		Factors:     factors,
	}, nil
}

// Apply writes the result onto the lead and appends one score history entry.
// It returns the entry appended.
func Apply(lead *domain.Lead, result Result, reason string, at time.Time) domain.ScoreHistoryEntry {
	entry := domain.ScoreHistoryEntry{
		Timestamp: at,
		Score:     result.Total,
		Reason:    reason,
	}
	lead.LeadScore = result.Total
	lead.ScoringData = result.ScoringData(at)
	lead.ScoreHistory = append(lead.ScoreHistory, entry)
	return entry
}

// Reason renders a human-readable summary of the breakdown.
func Reason(trigger string, r Result) string {
	return fmt.Sprintf("%s: engagement=%d demographic=%d behavioral=%d fit=%d",
		trigger, r.Engagement, r.Demographic, r.Behavioral, r.Fit)
}

// ========== ENGAGEMENT (recency, frequency, responsiveness) ==========

func (e *Engine) engagement(lead *domain.Lead, interactions []domain.Interaction, now time.Time, factors map[string]int) int {
	last := lead.LastContactDate
	for i := range interactions {
		at := interactions[i].OccurredAt
		if last == nil || at.After(*last) {
			last = &interactions[i].OccurredAt
		}
	}

	recency := 0
	if last != nil {
		switch days := now.Sub(*last).Hours() / 24; {
		case days <= 1:
			recency = 10
		case days <= 7:
			recency = 7
		case days <= 30:
			recency = 4
		case days <= 90:
			recency = 1
		}
	}
	factors["recency"] = recency

	window := time.Duration(e.profile.FrequencyWindowDays) * 24 * time.Hour
	recent := 0
	for _, it := range interactions {
		if !it.OccurredAt.After(now) && now.Sub(it.OccurredAt) <= window {
			recent++
		}
	}
	frequency := min(recent*2, 10)
	factors["frequency"] = frequency

	responsiveness := 0
	if avg, ok := averageResponseHours(lead, interactions); ok {
		switch {
		case avg <= 4:
			responsiveness = 5
		case avg <= 24:
			responsiveness = 3
		case avg <= 72:
			responsiveness = 1
		}
	}
	factors["responsiveness"] = responsiveness

	return recency + frequency + responsiveness
}

func averageResponseHours(lead *domain.Lead, interactions []domain.Interaction) (float64, bool) {
	if lead.TimedResponses > 0 {
		return lead.AverageResponseTime, true
	}
	var sum float64
	n := 0
	for _, it := range interactions {
		if it.ResponseHours != nil && *it.ResponseHours >= 0 {
			sum += *it.ResponseHours
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ========== DEMOGRAPHIC (who the lead is) ==========

func (e *Engine) demographic(lead *domain.Lead, factors map[string]int) int {
	size := 0
	normalizedSize := strings.ToLower(strings.TrimSpace(lead.CompanySize))
	if normalizedSize != "" {
		size = 1
		if points, ok := companySizePoints[normalizedSize]; ok {
			size = points
		}
	}
	factors["company_size"] = size

	industry := 0
	if normalized := strings.ToLower(strings.TrimSpace(lead.Industry)); normalized != "" {
		industry = 2
		if containsAny(normalized, e.profile.TargetIndustries) {
			industry = 6
		}
	}
	factors["industry"] = industry

	role := 0
	if normalized := strings.ToLower(strings.TrimSpace(lead.ContactRole)); normalized != "" {
		switch {
		case containsAny(normalized, e.profile.DecisionRoles):
			role = 6
		case containsAny(normalized, e.profile.InfluencerRoles):
			role = 4
		default:
			role = 1
		}
	}
	factors["role"] = role

	budget := 0
	switch b := lead.BudgetAmount; {
	case b >= 100_000:
		budget = 5
	case b >= 25_000:
		budget = 4
	case b >= 5_000:
		budget = 2
	case b > 0:
		budget = 1
	}
	factors["budget"] = budget

	return size + industry + role + budget
}

// ========== BEHAVIORAL (BANT + content engagement) ==========

func (e *Engine) behavioral(lead *domain.Lead, factors map[string]int) int {
	bant := lead.Qualification.ConfirmedCount() * e.profile.PointsPerBANTFlag
	factors["bant"] = bant

	c := lead.ContentEngagement
	raw := 0.5*float64(c.EmailOpens) + float64(c.EmailClicks) + 0.5*float64(c.WebsiteVisits) +
		2*float64(c.ContentDownloads) + 3*float64(c.EventAttendances)
	content := int(math.Floor(clampFloat(raw, 0, 9)))
	factors["content"] = content

	return bant + content
}

// ========== FIT (budget range, timeline, product interest) ==========

func (e *Engine) fit(lead *domain.Lead, factors map[string]int) int {
	budgetFit := 0
	switch b := lead.BudgetAmount; {
	case b <= 0:
	case b >= e.profile.MinBudget && b <= e.profile.MaxBudget:
		budgetFit = 10
	case b > e.profile.MaxBudget:
		budgetFit = 7
	default:
		budgetFit = 3
	}
	factors["budget_fit"] = budgetFit

	timeline := 0
	switch d := lead.PurchaseTimelineDays; {
	case d <= 0:
	case d <= 30:
		timeline = 8
	case d <= 90:
		timeline = 5
	case d <= 180:
		timeline = 3
	default:
		timeline = 1
	}
	factors["timeline"] = timeline

	product := 0
	matches := 0
	for _, interest := range lead.ProductInterest {
		if containsAny(strings.ToLower(interest), e.profile.Products) {
			matches++
		}
	}
	switch {
	case matches > 0:
		product = min(4+matches-1, 7)
	case len(lead.ProductInterest) > 0:
		product = 1
	}
	factors["product_interest"] = product

	return budgetFit + timeline + product
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func clampComponent(value int) int {
	if value < 0 {
		return 0
	}
	if value > domain.MaxComponentScore {
		return domain.MaxComponentScore
	}
	return value
}

func clampFloat(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
