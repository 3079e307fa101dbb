// Package temperature derives a lead's temperature from its status, score,
// elapsed time and interaction velocity. Everything here is pure; callers
// decide whether and when to persist the result.
package temperature

import (
	"time"

	"leadflow_backend/internal/leads/domain"
)

// Bands are score thresholds for HOT, WARM and COLD. Anything below Cold is FROZEN.
type Bands struct {
	Hot  int `yaml:"hot"`
	Warm int `yaml:"warm"`
	Cold int `yaml:"cold"`
}

func (b Bands) classify(score int) domain.Temperature {
	switch {
	case score >= b.Hot:
		return domain.TemperatureHot
	case score >= b.Warm:
		return domain.TemperatureWarm
	case score >= b.Cold:
		return domain.TemperatureCold
	default:
		return domain.TemperatureFrozen
	}
}

// Thresholds are the tunable constants of the state machine.
type Thresholds struct {
	ApprovedPromoteScore  int           `yaml:"approved_promote_score"`
	ApprovedPromoteWithin time.Duration `yaml:"approved_promote_within"`
	FastApprovalWindow    time.Duration `yaml:"fast_approval_window"`

	ReviewBands        Bands         `yaml:"review_bands"`
	PendingBands       Bands         `yaml:"pending_bands"`
	PendingFreshWindow time.Duration `yaml:"pending_fresh_window"`
	PendingStaleAfter  time.Duration `yaml:"pending_stale_after"`

	ClosedRevivalScore int `yaml:"closed_revival_score"`

	VelocityWindow    time.Duration `yaml:"velocity_window"`
	VelocityWarmCount int           `yaml:"velocity_warm_count"`
	VelocityHotCount  int           `yaml:"velocity_hot_count"`

	DecayWarmAfterDays   int `yaml:"decay_warm_after_days"`
	DecayColdAfterDays   int `yaml:"decay_cold_after_days"`
	DecayFrozenAfterDays int `yaml:"decay_frozen_after_days"`
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ApprovedPromoteScore:  70,
		ApprovedPromoteWithin: 24 * time.Hour,
		FastApprovalWindow:    6 * time.Hour,
		ReviewBands:           Bands{Hot: 80, Warm: 60, Cold: 40},
		PendingBands:          Bands{Hot: 75, Warm: 50, Cold: 25},
		PendingFreshWindow:    2 * time.Hour,
		PendingStaleAfter:     168 * time.Hour,
		ClosedRevivalScore:    60,
		VelocityWindow:        7 * 24 * time.Hour,
		VelocityWarmCount:     5,
		VelocityHotCount:      8,
		DecayWarmAfterDays:    14,
		DecayColdAfterDays:    30,
		DecayFrozenAfterDays:  60,
	}
}

// Input is everything the state machine looks at.
type Input struct {
	Status  domain.Status
	Current domain.Temperature
	Score   int
	// StatusChangeElapsed is the time since the status last changed.
	StatusChangeElapsed time.Duration
	// RecentInteractions counts interactions inside the velocity window.
	RecentInteractions int
	// Idle is the time since the lead was last touched by anyone.
	Idle time.Duration
}

// Machine evaluates temperatures with a fixed set of thresholds.
type Machine struct {
	th Thresholds
}

// NewMachine creates a state machine.
func NewMachine(th Thresholds) *Machine {
	return &Machine{th: th}
}

// Thresholds returns the thresholds in use.
func (m *Machine) Thresholds() Thresholds {
	return m.th
}

// InputFor builds the machine input for a lead as of now.
func (m *Machine) InputFor(lead domain.Lead, interactions []domain.Interaction, now time.Time) Input {
	lastTouch := lead.LastActivityAt()
	recent := 0
	for _, it := range interactions {
		if it.OccurredAt.After(lastTouch) {
			lastTouch = it.OccurredAt
		}
		if !it.OccurredAt.After(now) && now.Sub(it.OccurredAt) <= m.th.VelocityWindow {
			recent++
		}
	}

	return Input{
		Status:              lead.Status,
		Current:             lead.Temperature,
		Score:               lead.LeadScore,
		StatusChangeElapsed: nonNegative(now.Sub(lead.UpdatedAt)),
		RecentInteractions:  recent,
		Idle:                nonNegative(now.Sub(lastTouch)),
	}
}

// Next returns the temperature for in. Evaluation order: status rule,
// fast-approval boost, interaction velocity, decay, then status bounds.
func (m *Machine) Next(in Input) domain.Temperature {
	base := m.statusRule(in)
	t := base

	if (in.Status == domain.StatusApproved || in.Status == domain.StatusReview) && in.StatusChangeElapsed <= m.th.FastApprovalWindow {
		t = domain.TemperatureHot
	}

	// Velocity promotes by at most one step, judged on the status rule's output.
	switch {
	case in.RecentInteractions >= m.th.VelocityHotCount && base == domain.TemperatureWarm:
		t = t.AtLeast(domain.TemperatureHot)
	case in.RecentInteractions >= m.th.VelocityWarmCount && base == domain.TemperatureCold:
		t = t.AtLeast(domain.TemperatureWarm)
	}

	t = t.AtMost(m.decayCeiling(in.Idle))

	return clampForStatus(in.Status, t)
}

func (m *Machine) statusRule(in Input) domain.Temperature {
	switch in.Status {
	case domain.StatusApproved:
		if in.Current == domain.TemperatureHot || in.Current == domain.TemperatureWarm {
			if in.StatusChangeElapsed <= m.th.FastApprovalWindow {
				return domain.TemperatureHot
			}
			return in.Current
		}
		if in.Score >= m.th.ApprovedPromoteScore || in.StatusChangeElapsed <= m.th.ApprovedPromoteWithin {
			return domain.TemperatureHot
		}
		return domain.TemperatureWarm

	case domain.StatusConverted:
		return domain.TemperatureHot

	case domain.StatusReview:
		return m.th.ReviewBands.classify(in.Score)

	case domain.StatusPending:
		t := m.th.PendingBands.classify(in.Score)
		if in.StatusChangeElapsed <= m.th.PendingFreshWindow {
			return t.AtLeast(domain.TemperatureWarm)
		}
		if in.StatusChangeElapsed > m.th.PendingStaleAfter {
			return t.AtMost(domain.TemperatureCold)
		}
		return t

	case domain.StatusDeclined, domain.StatusCancelled:
		if in.Score >= m.th.ClosedRevivalScore {
			return domain.TemperatureCold
		}
		return domain.TemperatureFrozen

	default:
		return m.th.PendingBands.classify(in.Score)
	}
}

// decayCeiling is the warmest temperature an idle lead may keep.
func (m *Machine) decayCeiling(idle time.Duration) domain.Temperature {
	days := idle.Hours() / 24
	switch {
	case days > float64(m.th.DecayFrozenAfterDays):
		return domain.TemperatureFrozen
	case days > float64(m.th.DecayColdAfterDays):
		return domain.TemperatureCold
	case days > float64(m.th.DecayWarmAfterDays):
		return domain.TemperatureWarm
	default:
		return domain.TemperatureHot
	}
}

func clampForStatus(status domain.Status, t domain.Temperature) domain.Temperature {
	switch status {
	case domain.StatusApproved:
		return t.AtLeast(domain.TemperatureWarm)
	case domain.StatusConverted:
		return domain.TemperatureHot
	case domain.StatusDeclined, domain.StatusCancelled:
		return t.AtMost(domain.TemperatureWarm)
	}
	return t
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
