package followup

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeCalendar struct {
	timezone   string
	tzErr      error
	nonWorking map[string]bool
	dayErr     error
	asked      []time.Time
}

func (f *fakeCalendar) IsWorkingDay(_ context.Context, _ uuid.UUID, date time.Time) (bool, error) {
	f.asked = append(f.asked, date)
	if f.dayErr != nil {
		return false, f.dayErr
	}
	return !f.nonWorking[date.Format(time.DateOnly)], nil
}

func (f *fakeCalendar) GetTimezone(context.Context, uuid.UUID) (string, error) {
	return f.timezone, f.tzErr
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// 2026-03-04 is a Wednesday.
var wednesday = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func TestNextSkipsNonWorkingTomorrow(t *testing.T) {
	cal := &fakeCalendar{nonWorking: map[string]bool{"2026-03-05": true}}
	s := New(cal, logger.Nop()).WithClock(fixedClock(wednesday))

	got := s.Next(context.Background(), uuid.New(), domain.TemperatureHot, domain.PriorityCritical)

	want := time.Date(2026, 3, 6, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextNeverAsksAboutSunday(t *testing.T) {
	saturday := time.Date(2026, 3, 7, 16, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{}
	s := New(cal, logger.Nop()).WithClock(fixedClock(saturday))

	got := s.Next(context.Background(), uuid.New(), domain.TemperatureCold, domain.PriorityLow)

	want := time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	for _, d := range cal.asked {
		if d.Weekday() == time.Sunday {
			t.Fatalf("calendar was asked about Sunday %s", d)
		}
	}
}

func TestNextFallsBackToMondayWhenWeekIsClosed(t *testing.T) {
	closed := map[string]bool{}
	for i := 1; i <= 7; i++ {
		closed[wednesday.AddDate(0, 0, i).Format(time.DateOnly)] = true
	}
	s := New(&fakeCalendar{nonWorking: closed}, logger.Nop()).WithClock(fixedClock(wednesday))

	got := s.Next(context.Background(), uuid.New(), domain.TemperatureFrozen, domain.PriorityLow)

	want := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextDegradesOnCalendarError(t *testing.T) {
	friday := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{tzErr: errors.New("connection refused"), dayErr: errors.New("connection refused")}
	s := New(cal, logger.Nop()).WithClock(fixedClock(friday))

	got := s.Next(context.Background(), uuid.New(), domain.TemperatureHot, domain.PriorityMedium)

	want := time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected Monday 09:30 UTC, got %s", got)
	}
}

func TestNextWithoutCalendarUsesWeekdays(t *testing.T) {
	saturday := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	s := New(nil, logger.Nop()).WithClock(fixedClock(saturday))

	got := s.Next(context.Background(), uuid.New(), domain.TemperatureWarm, domain.PriorityLow)

	want := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextNotConfiguredCalendarUsesWeekdays(t *testing.T) {
	friday := time.Date(2026, 3, 6, 13, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{tzErr: ErrCalendarNotConfigured, dayErr: ErrCalendarNotConfigured}
	s := New(cal, logger.Nop()).WithClock(fixedClock(friday))

	got := s.Next(context.Background(), uuid.New(), domain.TemperatureWarm, domain.PriorityLow)

	want := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextUsesTenantTimezone(t *testing.T) {
	// 03:00 UTC is still the previous evening in New York.
	now := time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)
	s := New(&fakeCalendar{timezone: "America/New_York"}, logger.Nop()).WithClock(fixedClock(now))

	got := s.Next(context.Background(), uuid.New(), domain.TemperatureWarm, domain.PriorityMedium)

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	want := time.Date(2026, 3, 4, 10, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextIsAlwaysFutureWorkingDay(t *testing.T) {
	cal := &fakeCalendar{nonWorking: map[string]bool{"2026-03-10": true, "2026-03-12": true}}
	start := time.Date(2026, 3, 8, 0, 30, 0, 0, time.UTC)

	for h := 0; h < 24*7; h += 5 {
		now := start.Add(time.Duration(h) * time.Hour)
		s := New(cal, logger.Nop()).WithClock(fixedClock(now))
		for _, temp := range append(domain.AllTemperatures, "UNKNOWN") {
			got := s.Next(context.Background(), uuid.New(), temp, domain.PriorityHigh)
			if !got.After(now) {
				t.Fatalf("follow-up %s not after now %s", got, now)
			}
			if got.Weekday() == time.Sunday || cal.nonWorking[got.Format(time.DateOnly)] {
				t.Fatalf("follow-up %s is not a working day", got)
			}
		}
	}
}

func TestSlotTable(t *testing.T) {
	cases := []struct {
		temp     domain.Temperature
		priority domain.Priority
		hour     int
		wantH    int
		wantM    int
	}{
		{domain.TemperatureHot, domain.PriorityCritical, 9, 8, 0},
		{domain.TemperatureHot, domain.PriorityHigh, 9, 8, 0},
		{domain.TemperatureCold, domain.PriorityHigh, 9, 9, 0},
		{domain.TemperatureHot, domain.PriorityMedium, 9, 9, 30},
		{domain.TemperatureWarm, domain.PriorityLow, 11, 14, 0},
		{domain.TemperatureWarm, domain.PriorityLow, 12, 10, 0},
		{domain.TemperatureCold, domain.PriorityLow, 9, 11, 0},
		{domain.TemperatureFrozen, domain.PriorityMedium, 9, 15, 0},
		{"LUKEWARM", domain.PriorityMedium, 9, 10, 0},
	}

	for _, tc := range cases {
		h, m := Slot(tc.temp, tc.priority, tc.hour)
		if h != tc.wantH || m != tc.wantM {
			t.Errorf("Slot(%s, %s, %d) = %02d:%02d, want %02d:%02d", tc.temp, tc.priority, tc.hour, h, m, tc.wantH, tc.wantM)
		}
	}
}
