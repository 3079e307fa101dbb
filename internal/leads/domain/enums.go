package domain

import "strings"

// Status is the pipeline state of a lead.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReview    Status = "REVIEW"
	StatusApproved  Status = "APPROVED"
	StatusConverted Status = "CONVERTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

// AllStatuses lists every known status.
var AllStatuses = []Status{StatusPending, StatusReview, StatusApproved, StatusConverted, StatusDeclined, StatusCancelled}

// Temperature is the derived urgency classification of a lead.
type Temperature string

const (
	TemperatureHot    Temperature = "HOT"
	TemperatureWarm   Temperature = "WARM"
	TemperatureCold   Temperature = "COLD"
	TemperatureFrozen Temperature = "FROZEN"
)

// AllTemperatures lists temperatures from warmest to coldest.
var AllTemperatures = []Temperature{TemperatureHot, TemperatureWarm, TemperatureCold, TemperatureFrozen}

// Rank orders temperatures: FROZEN=0 < COLD=1 < WARM=2 < HOT=3.
// Unknown values rank as FROZEN.
func (t Temperature) Rank() int {
	switch t {
	case TemperatureHot:
		return 3
	case TemperatureWarm:
		return 2
	case TemperatureCold:
		return 1
	default:
		return 0
	}
}

// IsKnown reports whether t is one of the four temperatures.
func (t Temperature) IsKnown() bool {
	switch t {
	case TemperatureHot, TemperatureWarm, TemperatureCold, TemperatureFrozen:
		return true
	}
	return false
}

// TemperatureFromRank is the inverse of Rank, clamped to the ladder.
func TemperatureFromRank(rank int) Temperature {
	switch {
	case rank >= 3:
		return TemperatureHot
	case rank == 2:
		return TemperatureWarm
	case rank == 1:
		return TemperatureCold
	default:
		return TemperatureFrozen
	}
}

// AtLeast returns the warmer of t and floor.
func (t Temperature) AtLeast(floor Temperature) Temperature {
	if t.Rank() < floor.Rank() {
		return floor
	}
	return t
}

// AtMost returns the colder of t and ceiling.
func (t Temperature) AtMost(ceiling Temperature) Temperature {
	if t.Rank() > ceiling.Rank() {
		return ceiling
	}
	return t
}

// Priority is the sales priority set by users.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// AllPriorities lists every known priority.
var AllPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IsUrgent reports HIGH or CRITICAL.
func (p Priority) IsUrgent() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// ParseStatus normalizes user input into a Status.
func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range AllStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// ParseTemperature normalizes user input into a Temperature.
func ParseTemperature(value string) (Temperature, bool) {
	t := Temperature(strings.ToUpper(strings.TrimSpace(value)))
	return t, t.IsKnown()
}

// ParsePriority normalizes user input into a Priority.
func ParsePriority(value string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range AllPriorities {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Lifecycle stages derived from status.
const (
	LifecycleLead         = "lead"
	LifecycleQualifying   = "qualifying"
	LifecycleOpportunity  = "opportunity"
	LifecycleCustomer     = "customer"
	LifecycleDisqualified = "disqualified"
)

// LifecycleStageFor maps a status to its lifecycle stage.
func LifecycleStageFor(status Status) string {
	switch status {
	case StatusReview:
		return LifecycleQualifying
	case StatusApproved:
		return LifecycleOpportunity
	case StatusConverted:
		return LifecycleCustomer
	case StatusDeclined, StatusCancelled:
		return LifecycleDisqualified
	default:
		return LifecycleLead
	}
}
