package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"leadflow_backend/internal/leads/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	set, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), set)
}

func TestLoadOverlaysOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
temperature:
  fast_approval_window: 3h
  review_bands:
    hot: 90
progression:
  review_approve_score: 88
scoring:
  products: [widgets]
`), 0o600))

	set, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Hour, set.Temperature.FastApprovalWindow)
	assert.Equal(t, 90, set.Temperature.ReviewBands.Hot)
	assert.Equal(t, 60, set.Temperature.ReviewBands.Warm, "unset nested keys keep defaults")
	assert.Equal(t, 88, set.Progression.ReviewApproveScore)
	assert.Equal(t, 40, set.Progression.ReviewDeclineBelow)
	assert.Equal(t, []string{"widgets"}, set.Scoring.Products)
	assert.Equal(t, int64(250_000), set.Scoring.MaxBudget)
}

func TestDecodeRejectsUnknownKeysAndBadBands(t *testing.T) {
	_, err := Decode(Default(), []byte("temperature:\n  warmth: 3\n"))
	assert.Error(t, err)

	_, err = Decode(Default(), []byte("temperature:\n  pending_bands: {hot: 10, warm: 50, cold: 25}\n"))
	assert.Error(t, err)
}

func TestProgressionEvaluate(t *testing.T) {
	p := DefaultProgression()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	cases := []struct {
		name   string
		lead   domain.Lead
		want   domain.Status
		change bool
	}{
		{"young pending at 70 goes to review", domain.Lead{Status: domain.StatusPending, LeadScore: 70, CreatedAt: now.Add(-2 * day), UpdatedAt: now.Add(-2 * day)}, domain.StatusReview, true},
		{"old pending at 75 stays", domain.Lead{Status: domain.StatusPending, LeadScore: 75, CreatedAt: now.Add(-5 * day), UpdatedAt: now.Add(-5 * day)}, "", false},
		{"old pending at 80 goes to review", domain.Lead{Status: domain.StatusPending, LeadScore: 80, CreatedAt: now.Add(-30 * day), UpdatedAt: now.Add(-30 * day)}, domain.StatusReview, true},
		{"fresh review at 85 approved", domain.Lead{Status: domain.StatusReview, LeadScore: 85, UpdatedAt: now.Add(-1 * day)}, domain.StatusApproved, true},
		{"late review at 85 stays", domain.Lead{Status: domain.StatusReview, LeadScore: 85, UpdatedAt: now.Add(-3 * day)}, "", false},
		{"stalled weak review declined", domain.Lead{Status: domain.StatusReview, LeadScore: 39, UpdatedAt: now.Add(-7 * day)}, domain.StatusDeclined, true},
		{"recent weak review stays", domain.Lead{Status: domain.StatusReview, LeadScore: 10, UpdatedAt: now.Add(-6 * day)}, "", false},
		{"stale weak approval re-flagged", domain.Lead{Status: domain.StatusApproved, LeadScore: 29, UpdatedAt: now.Add(-14 * day)}, domain.StatusReview, true},
		{"converted untouched", domain.Lead{Status: domain.StatusConverted, LeadScore: 0, UpdatedAt: now.Add(-90 * day)}, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := p.Evaluate(tc.lead, now)
			assert.Equal(t, tc.change, ok)
			assert.Equal(t, tc.want, got.To)
			if ok {
				assert.NotEmpty(t, got.Reason)
				assert.True(t, domain.CanTransition(tc.lead.Status, got.To), "rule must follow the transition table")
			}
		})
	}
}
