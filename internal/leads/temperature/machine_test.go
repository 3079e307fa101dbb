package temperature

import (
	"testing"
	"time"

	"leadflow_backend/internal/leads/domain"
)

const day = 24 * time.Hour

func TestNextStatusRules(t *testing.T) {
	m := NewMachine(DefaultThresholds())

	cases := []struct {
		name string
		in   Input
		want domain.Temperature
	}{
		{"converted always hot", Input{Status: domain.StatusConverted, Score: 0, StatusChangeElapsed: 40 * day, Idle: 40 * day}, domain.TemperatureHot},
		{"review banded hot", Input{Status: domain.StatusReview, Score: 80, StatusChangeElapsed: 2 * day}, domain.TemperatureHot},
		{"review banded warm", Input{Status: domain.StatusReview, Score: 65, StatusChangeElapsed: 2 * day}, domain.TemperatureWarm},
		{"review banded cold", Input{Status: domain.StatusReview, Score: 40, StatusChangeElapsed: 2 * day}, domain.TemperatureCold},
		{"review banded frozen", Input{Status: domain.StatusReview, Score: 39, StatusChangeElapsed: 2 * day}, domain.TemperatureFrozen},
		{"fresh review boosted", Input{Status: domain.StatusReview, Score: 10, StatusChangeElapsed: 3 * time.Hour}, domain.TemperatureHot},
		{"pending fresh biased to warm", Input{Status: domain.StatusPending, Score: 10, StatusChangeElapsed: time.Hour}, domain.TemperatureWarm},
		{"pending banded", Input{Status: domain.StatusPending, Score: 76, StatusChangeElapsed: 3 * day}, domain.TemperatureHot},
		{"pending stale capped cold", Input{Status: domain.StatusPending, Score: 90, StatusChangeElapsed: 8 * day, Idle: 8 * day}, domain.TemperatureCold},
		{"declined revival", Input{Status: domain.StatusDeclined, Score: 60, StatusChangeElapsed: 3 * day}, domain.TemperatureCold},
		{"cancelled frozen", Input{Status: domain.StatusCancelled, Score: 59, StatusChangeElapsed: 3 * day}, domain.TemperatureFrozen},
		{"approved cold promoted by score", Input{Status: domain.StatusApproved, Current: domain.TemperatureCold, Score: 70, StatusChangeElapsed: 3 * day}, domain.TemperatureHot},
		{"approved cold promoted by recency", Input{Status: domain.StatusApproved, Current: domain.TemperatureFrozen, Score: 10, StatusChangeElapsed: 20 * time.Hour}, domain.TemperatureHot},
		{"approved cold to warm", Input{Status: domain.StatusApproved, Current: domain.TemperatureCold, Score: 10, StatusChangeElapsed: 3 * day}, domain.TemperatureWarm},
		{"approved warm keeps warm", Input{Status: domain.StatusApproved, Current: domain.TemperatureWarm, Score: 10, StatusChangeElapsed: 3 * day}, domain.TemperatureWarm},
		{"approved fast boost", Input{Status: domain.StatusApproved, Current: domain.TemperatureWarm, Score: 10, StatusChangeElapsed: 5 * time.Hour}, domain.TemperatureHot},
		{"unknown status uses pending bands", Input{Status: "ARCHIVED", Score: 55, StatusChangeElapsed: time.Hour}, domain.TemperatureWarm},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Next(tc.in); got != tc.want {
				t.Fatalf("Next() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNextVelocityPromotesOneStep(t *testing.T) {
	m := NewMachine(DefaultThresholds())

	coldReview := Input{Status: domain.StatusReview, Score: 45, StatusChangeElapsed: 3 * day}
	coldReview.RecentInteractions = 5
	if got := m.Next(coldReview); got != domain.TemperatureWarm {
		t.Fatalf("5 interactions should promote COLD to WARM, got %s", got)
	}
	coldReview.RecentInteractions = 9
	if got := m.Next(coldReview); got != domain.TemperatureWarm {
		t.Fatalf("velocity must not jump COLD to HOT, got %s", got)
	}

	warmReview := Input{Status: domain.StatusReview, Score: 65, StatusChangeElapsed: 3 * day, RecentInteractions: 8}
	if got := m.Next(warmReview); got != domain.TemperatureHot {
		t.Fatalf("8 interactions should promote WARM to HOT, got %s", got)
	}
}

func TestNextDecayOnlyMovesDown(t *testing.T) {
	m := NewMachine(DefaultThresholds())

	for _, status := range []domain.Status{domain.StatusPending, domain.StatusReview} {
		previous := domain.TemperatureHot
		for _, idleDays := range []int{0, 15, 31, 61, 120} {
			in := Input{Status: status, Score: 100, StatusChangeElapsed: 3 * day, Idle: time.Duration(idleDays) * day, RecentInteractions: 10}
			got := m.Next(in)
			if got.Rank() > previous.Rank() {
				t.Fatalf("%s idle %d days warmed from %s to %s", status, idleDays, previous, got)
			}
			previous = got
		}
		if previous != domain.TemperatureFrozen {
			t.Fatalf("%s idle 120 days should be FROZEN, got %s", status, previous)
		}
	}
}

func TestNextApprovedAndConvertedNeverCold(t *testing.T) {
	m := NewMachine(DefaultThresholds())

	for _, status := range []domain.Status{domain.StatusApproved, domain.StatusConverted} {
		for _, current := range domain.AllTemperatures {
			for _, idleDays := range []int{0, 20, 45, 90} {
				in := Input{Status: status, Current: current, Score: 0, StatusChangeElapsed: time.Duration(idleDays) * day, Idle: time.Duration(idleDays) * day}
				got := m.Next(in)
				if got == domain.TemperatureCold || got == domain.TemperatureFrozen {
					t.Fatalf("%s from %s idle %d days resolved to %s", status, current, idleDays, got)
				}
			}
		}
	}
}

func TestNextClosedLeadsNeverHot(t *testing.T) {
	m := NewMachine(DefaultThresholds())

	for _, status := range []domain.Status{domain.StatusDeclined, domain.StatusCancelled} {
		for score := 0; score <= 100; score += 10 {
			for _, recent := range []int{0, 5, 8, 20} {
				in := Input{Status: status, Current: domain.TemperatureHot, Score: score, StatusChangeElapsed: time.Hour, RecentInteractions: recent}
				if got := m.Next(in); got == domain.TemperatureHot {
					t.Fatalf("%s score %d recent %d resolved to HOT", status, score, recent)
				}
			}
		}
	}
}

func TestPendingLowScoreIdleTenDaysIsFrozen(t *testing.T) {
	m := NewMachine(DefaultThresholds())
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	lead := domain.Lead{
		Status:      domain.StatusPending,
		Temperature: domain.TemperatureWarm,
		LeadScore:   20,
		UpdatedAt:   now.Add(-10 * day),
	}

	if got := m.Next(m.InputFor(lead, nil, now)); got != domain.TemperatureFrozen {
		t.Fatalf("expected FROZEN, got %s", got)
	}
}

func TestNextIsIdempotentOnPersistedResult(t *testing.T) {
	m := NewMachine(DefaultThresholds())
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	lead := domain.Lead{Status: domain.StatusApproved, Temperature: domain.TemperatureFrozen, LeadScore: 80, UpdatedAt: now.Add(-20 * day)}

	first := m.Next(m.InputFor(lead, nil, now))
	lead.Temperature = first
	second := m.Next(m.InputFor(lead, nil, now))

	if first != second {
		t.Fatalf("temperature drifted between runs: %s then %s", first, second)
	}
}

func TestInputForCountsWindowAndIdle(t *testing.T) {
	m := NewMachine(DefaultThresholds())
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	lead := domain.Lead{Status: domain.StatusReview, UpdatedAt: now.Add(-40 * day)}
	interactions := []domain.Interaction{
		{OccurredAt: now.Add(-1 * day)},
		{OccurredAt: now.Add(-6 * day)},
		{OccurredAt: now.Add(-9 * day)},
	}

	in := m.InputFor(lead, interactions, now)

	if in.RecentInteractions != 2 {
		t.Fatalf("expected 2 interactions in window, got %d", in.RecentInteractions)
	}
	if in.Idle != day {
		t.Fatalf("expected idle of one day, got %s", in.Idle)
	}
	if in.StatusChangeElapsed != 40*day {
		t.Fatalf("expected elapsed 40 days, got %s", in.StatusChangeElapsed)
	}
}

func TestInputForIdleFollowsLastContactNotStatusAnchor(t *testing.T) {
	m := NewMachine(DefaultThresholds())
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	contacted := now.Add(-2 * day)
	lead := domain.Lead{Status: domain.StatusReview, UpdatedAt: now.Add(-70 * day), LastContactDate: &contacted}

	in := m.InputFor(lead, nil, now)

	if in.Idle != 2*day {
		t.Fatalf("decay must measure idle time from the last contact, got %s", in.Idle)
	}
	if in.StatusChangeElapsed != 70*day {
		t.Fatalf("status rules still see the status anchor, got %s", in.StatusChangeElapsed)
	}
}
