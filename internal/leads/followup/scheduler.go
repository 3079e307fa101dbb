// Package followup computes the next recommended contact time for a lead,
// honoring the organization's working-day calendar and timezone.
package followup

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrCalendarNotConfigured is returned by providers for tenants without a calendar.
var ErrCalendarNotConfigured = errors.New("organization calendar not configured")

// CalendarProvider answers working-day questions for an organization.
type CalendarProvider interface {
	IsWorkingDay(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error)
	GetTimezone(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// lookaheadDays is how many calendar days after today are asked before
// falling back to the next Monday.
const lookaheadDays = 7

var calendarFallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "leadflow_followup_calendar_fallbacks_total",
		Help: "Follow-up computations that fell back to the Monday-Friday rule",
	},
	[]string{"reason"},
)

// Scheduler computes follow-up timestamps. A nil calendar is allowed and
// means every tenant uses the Monday-Friday rule.
type Scheduler struct {
	calendar CalendarProvider
	log      *logger.Logger
	now      func() time.Time
}

// New creates a follow-up scheduler.
func New(calendar CalendarProvider, log *logger.Logger) *Scheduler {
	return &Scheduler{calendar: calendar, log: log, now: time.Now}
}

// WithClock replaces the wall clock. Used by tests and the CLI.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Next returns the next follow-up time for the tenant. It never fails:
// calendar trouble degrades to UTC and the Monday-Friday rule.
func (s *Scheduler) Next(ctx context.Context, tenantID uuid.UUID, temp domain.Temperature, priority domain.Priority) time.Time {
	loc := s.location(ctx, tenantID)
	now := s.now().In(loc)

	day := s.pickDay(ctx, tenantID, now)
	hour, minute := Slot(temp, priority, now.Hour())

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

// Slot maps temperature and priority to a time of day. WARM leads are
// spread across the day depending on the current hour.
func Slot(temp domain.Temperature, priority domain.Priority, currentHour int) (hour, minute int) {
	switch {
	case priority.IsUrgent() && temp == domain.TemperatureHot:
		return 8, 0
	case priority.IsUrgent():
		return 9, 0
	}

	switch temp {
	case domain.TemperatureHot:
		return 9, 30
	case domain.TemperatureWarm:
		if currentHour < 12 {
			return 14, 0
		}
		return 10, 0
	case domain.TemperatureCold:
		return 11, 0
	case domain.TemperatureFrozen:
		return 15, 0
	default:
		return 10, 0
	}
}

func (s *Scheduler) location(ctx context.Context, tenantID uuid.UUID) *time.Location {
	if s.calendar == nil {
		return time.UTC
	}
	name, err := s.calendar.GetTimezone(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, ErrCalendarNotConfigured) {
			s.collaboratorFailure(ctx, tenantID, "get_timezone", err)
		}
		return time.UTC
	}
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.collaboratorFailure(ctx, tenantID, "load_location", err)
		return time.UTC
	}
	return loc
}

func (s *Scheduler) pickDay(ctx context.Context, tenantID uuid.UUID, now time.Time) time.Time {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	if s.calendar == nil {
		calendarFallbacks.WithLabelValues("not_configured").Inc()
		return weekdayFallback(tomorrow)
	}

	for i := 0; i < lookaheadDays; i++ {
		candidate := tomorrow.AddDate(0, 0, i)
		if candidate.Weekday() == time.Sunday {
			continue
		}
		working, err := s.calendar.IsWorkingDay(ctx, tenantID, candidate)
		if err != nil {
			if errors.Is(err, ErrCalendarNotConfigured) {
				calendarFallbacks.WithLabelValues("not_configured").Inc()
			} else {
				calendarFallbacks.WithLabelValues("provider_error").Inc()
				s.collaboratorFailure(ctx, tenantID, "is_working_day", err)
			}
			return weekdayFallback(tomorrow)
		}
		if working {
			return candidate
		}
	}

	return nextMonday(today)
}

func (s *Scheduler) collaboratorFailure(ctx context.Context, tenantID uuid.UUID, op string, err error) {
	if s.log == nil {
		return
	}
	s.log.WithContext(ctx).WithTenantID(tenantID.String()).CollaboratorFailure("calendar", op, err)
}

// weekdayFallback moves weekend days to the following Monday.
func weekdayFallback(day time.Time) time.Time {
	switch day.Weekday() {
	case time.Saturday:
		return day.AddDate(0, 0, 2)
	case time.Sunday:
		return day.AddDate(0, 0, 1)
	}
	return day
}

func nextMonday(today time.Time) time.Time {
	offset := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return today.AddDate(0, 0, offset)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
