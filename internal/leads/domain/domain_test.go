package domain

import (
	"testing"
	"time"
)

func TestCanTransitionAllowsReactivation(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusReview, true},
		{StatusReview, StatusApproved, true},
		{StatusApproved, StatusConverted, true},
		{StatusDeclined, StatusPending, true},
		{StatusCancelled, StatusPending, true},
		{StatusConverted, StatusPending, false},
		{StatusPending, StatusConverted, false},
		{StatusDeclined, StatusApproved, false},
		{StatusReview, StatusReview, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestApplyStatusChangeAppendsMatchingHistory(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	lead := Lead{Status: StatusPending, UpdatedAt: now.Add(-48 * time.Hour)}

	entry, err := lead.ApplyStatusChange(StatusReview, "score threshold", "", "call back", nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.NewStatus != lead.Status {
		t.Fatalf("history entry newStatus %s must equal lead status %s", entry.NewStatus, lead.Status)
	}
	if len(lead.ChangeHistory) != 1 || lead.ChangeHistory[0].OldStatus != StatusPending {
		t.Fatalf("expected one history entry from PENDING, got %+v", lead.ChangeHistory)
	}
	if !lead.UpdatedAt.Equal(now) {
		t.Fatalf("expected status change to reset updatedAt anchor")
	}
	if lead.LifecycleStage != LifecycleQualifying {
		t.Fatalf("expected lifecycle stage %q, got %q", LifecycleQualifying, lead.LifecycleStage)
	}

	if _, err := lead.ApplyStatusChange(StatusReview, "", "", "", nil, now); err == nil {
		t.Fatalf("expected error for no-op status change")
	}
	if len(lead.ChangeHistory) != 1 {
		t.Fatalf("failed change must not append history")
	}
}

func TestTemperatureLadderHelpers(t *testing.T) {
	if TemperatureCold.AtLeast(TemperatureWarm) != TemperatureWarm {
		t.Fatalf("AtLeast should raise COLD to WARM")
	}
	if TemperatureHot.AtMost(TemperatureCold) != TemperatureCold {
		t.Fatalf("AtMost should cap HOT at COLD")
	}
	if TemperatureFromRank(7) != TemperatureHot || TemperatureFromRank(-1) != TemperatureFrozen {
		t.Fatalf("TemperatureFromRank must clamp to the ladder")
	}
	if _, ok := ParseTemperature("lukewarm"); ok {
		t.Fatalf("unknown temperature must not parse")
	}
}

func TestLastActivityAtPrefersLatestTouch(t *testing.T) {
	updated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	contact := updated.Add(72 * time.Hour)
	lead := Lead{UpdatedAt: updated, LastContactDate: &contact}

	if !lead.LastActivityAt().Equal(contact) {
		t.Fatalf("expected last contact to win, got %s", lead.LastActivityAt())
	}
}

func TestInitialTemperatureFromSource(t *testing.T) {
	cases := map[string]Temperature{
		"Referral":          TemperatureWarm,
		" website ":         TemperatureWarm,
		"purchased":         TemperatureCold,
		"partner-portal":    TemperatureWarm,
		"trade fair":        TemperatureCold,
		"Urgent callback":   TemperatureHot,
		"demo request form": TemperatureHot,
		"":                  TemperatureCold,
	}

	for source, want := range cases {
		if got := InitialTemperature(source); got != want {
			t.Errorf("InitialTemperature(%q) = %s, want %s", source, got, want)
		}
	}
}
