// Package calendar answers working-day and timezone questions per
// organization. Settings live in Postgres; CachedProvider fronts any
// provider with Redis.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow_backend/internal/leads/followup"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is an organization's weekly working pattern.
type Settings struct {
	OrganizationID  uuid.UUID
	Timezone        string
	WorkingWeekdays []time.Weekday
}

// Works reports whether the weekly pattern includes weekday.
func (s Settings) Works(weekday time.Weekday) bool {
	for _, d := range s.WorkingWeekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Store loads calendar data.
type Store interface {
	GetSettings(ctx context.Context, organizationID uuid.UUID) (Settings, error)
	// GetException returns the override for date, or nil when there is none.
	GetException(ctx context.Context, organizationID uuid.UUID, date time.Time) (*bool, error)
}

// Repository is the Postgres-backed Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a calendar repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetSettings(ctx context.Context, organizationID uuid.UUID) (Settings, error) {
	var (
		settings Settings
		weekdays []int16
	)
	err := r.pool.QueryRow(ctx, `
		SELECT organization_id, timezone, working_weekdays
		FROM organization_calendars
		WHERE organization_id = $1
	`, organizationID).Scan(&settings.OrganizationID, &settings.Timezone, &weekdays)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, followup.ErrCalendarNotConfigured
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get calendar settings: %w", err)
	}

	settings.WorkingWeekdays = make([]time.Weekday, 0, len(weekdays))
	for _, iso := range weekdays {
		// ISO weekdays run Monday=1 .. Sunday=7.
		settings.WorkingWeekdays = append(settings.WorkingWeekdays, time.Weekday(int(iso)%7))
	}
	return settings, nil
}

func (r *Repository) GetException(ctx context.Context, organizationID uuid.UUID, date time.Time) (*bool, error) {
	var working bool
	err := r.pool.QueryRow(ctx, `
		SELECT is_working_day
		FROM organization_calendar_exceptions
		WHERE organization_id = $1 AND date = $2::date
	`, organizationID, date.Format(time.DateOnly)).Scan(&working)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar exception: %w", err)
	}
	return &working, nil
}

// Provider implements followup.CalendarProvider on top of a Store.
type Provider struct {
	store Store
}

// NewProvider creates a calendar provider.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

func (p *Provider) IsWorkingDay(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	settings, err := p.store.GetSettings(ctx, tenantID)
	if err != nil {
		return false, err
	}
	override, err := p.store.GetException(ctx, tenantID, date)
	if err != nil {
		return false, err
	}
	if override != nil {
		return *override, nil
	}
	return settings.Works(date.Weekday()), nil
}

func (p *Provider) GetTimezone(ctx context.Context, tenantID uuid.UUID) (string, error) {
	settings, err := p.store.GetSettings(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return settings.Timezone, nil
}

var _ followup.CalendarProvider = (*Provider)(nil)
