package scoring

import (
	"testing"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func hours(v float64) *float64 { return &v }

func richLead() *domain.Lead {
	contact := testNow.Add(-2 * time.Hour)
	return &domain.Lead{
		ID:                   1,
		OrganizationID:       uuid.New(),
		Status:               domain.StatusReview,
		CompanySize:          "Enterprise",
		Industry:             "Software",
		ContactRole:          "CTO",
		BudgetAmount:         150_000,
		PurchaseTimelineDays: 14,
		ProductInterest:      []string{"analytics", "integration", "training", "support"},
		Qualification:        domain.Qualification{BudgetConfirmed: true, AuthorityConfirmed: true, NeedConfirmed: true, TimelineConfirmed: true},
		ContentEngagement:    domain.ContentEngagement{EmailOpens: 20, EmailClicks: 10, ContentDownloads: 5, EventAttendances: 2},
		LastContactDate:      &contact,
		TimedResponses:       4,
		AverageResponseTime:  1.5,
	}
}

func interactionsEvery(days int, n int) []domain.Interaction {
	out := make([]domain.Interaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Interaction{
			LeadID:        1,
			Kind:          "call",
			Direction:     domain.DirectionInbound,
			OccurredAt:    testNow.Add(-time.Duration(i*days) * 24 * time.Hour),
			ResponseHours: hours(2),
		})
	}
	return out
}

func TestComputeBoundsAndSum(t *testing.T) {
	engine := NewEngine(DefaultProfile())
	leads := []*domain.Lead{
		richLead(),
		{OrganizationID: uuid.New()},
		{OrganizationID: uuid.New(), BudgetAmount: -10, PurchaseTimelineDays: -1, ContentEngagement: domain.ContentEngagement{EmailOpens: -50}},
	}

	for _, lead := range leads {
		result, err := engine.Compute(lead, interactionsEvery(1, 12), testNow)
		require.NoError(t, err)

		for name, v := range map[string]int{"engagement": result.Engagement, "demographic": result.Demographic, "behavioral": result.Behavioral, "fit": result.Fit} {
			assert.GreaterOrEqual(t, v, 0, name)
			assert.LessOrEqual(t, v, domain.MaxComponentScore, name)
		}
		assert.Equal(t, result.Engagement+result.Demographic+result.Behavioral+result.Fit, result.Total)
		assert.GreaterOrEqual(t, result.Total, 0)
		assert.LessOrEqual(t, result.Total, domain.MaxLeadScore)
	}
}

func TestComputeRichLeadScoresMaximum(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	result, err := engine.Compute(richLead(), interactionsEvery(1, 6), testNow)
	require.NoError(t, err)

	assert.Equal(t, 25, result.Engagement)
	assert.Equal(t, 25, result.Demographic)
	assert.Equal(t, 25, result.Behavioral)
	assert.Equal(t, 100, result.Total)
}

func TestComputeEmptyLeadScoresZero(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	result, err := engine.Compute(&domain.Lead{OrganizationID: uuid.New()}, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestComputeIsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultProfile())
	lead := richLead()
	history := interactionsEvery(3, 5)

	first, err := engine.Compute(lead, history, testNow)
	require.NoError(t, err)
	second, err := engine.Compute(lead, history, testNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeRejectsMissingLeadOrTenant(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	_, err := engine.Compute(nil, nil, testNow)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = engine.Compute(&domain.Lead{ID: 9}, nil, testNow)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecencyDropsWithAge(t *testing.T) {
	engine := NewEngine(DefaultProfile())
	old := testNow.Add(-45 * 24 * time.Hour)
	lead := &domain.Lead{OrganizationID: uuid.New(), LastContactDate: &old}

	result, err := engine.Compute(lead, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Factors["recency"])
	assert.Equal(t, 0, result.Factors["frequency"])
}

func TestApplyAppendsHistory(t *testing.T) {
	lead := richLead()
	lead.ScoreHistory = []domain.ScoreHistoryEntry{{Timestamp: testNow.Add(-time.Hour), Score: 10, Reason: "created"}}
	result := Result{Total: 42, Engagement: 10, Demographic: 12, Behavioral: 8, Fit: 12}

	entry := Apply(lead, result, Reason("batch", result), testNow)

	assert.Equal(t, 42, lead.LeadScore)
	assert.Equal(t, lead.LeadScore, lead.ScoringData.Total())
	assert.Len(t, lead.ScoreHistory, 2)
	assert.Equal(t, entry, lead.ScoreHistory[1])
	assert.Equal(t, "batch: engagement=10 demographic=12 behavioral=8 fit=12", entry.Reason)
	assert.True(t, lead.ScoringData.LastCalculated.Equal(testNow))
}
