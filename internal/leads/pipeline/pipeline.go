// Package pipeline runs score -> status rules -> temperature -> follow-up
// for a single lead and persists the result. The manual mutation path and
// the batch orchestrator both go through it so they derive identical values.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/rules"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/internal/leads/temperature"

	"github.com/google/uuid"
)

// historyWindow bounds how much interaction history a pass loads.
const historyWindow = 90 * 24 * time.Hour

// Store is the persistence the pipeline needs.
type Store interface {
	repository.LeadReader
	repository.EvaluationWriter
	ListInteractionsSince(ctx context.Context, tenantID uuid.UUID, leadID int64, since time.Time) ([]domain.Interaction, error)
}

// Scorer computes a lead score. *scoring.Engine satisfies it.
type Scorer interface {
	Compute(lead *domain.Lead, interactions []domain.Interaction, now time.Time) (scoring.Result, error)
}

// FollowUpPlanner picks the next contact time. *followup.Scheduler satisfies it.
type FollowUpPlanner interface {
	Next(ctx context.Context, tenantID uuid.UUID, temp domain.Temperature, priority domain.Priority) time.Time
}

// Options tune one pass.
type Options struct {
	// Trigger names what caused the pass; it prefixes the score history reason.
	Trigger string
	// PriorityChanged forces a follow-up recompute even if temperature holds.
	PriorityChanged bool
	// Progression, when set, may move the lead's status after scoring.
	Progression *rules.Progression
}

// Outcome describes what a pass changed.
type Outcome struct {
	Lead                domain.Lead
	Score               scoring.Result
	PreviousScore       int
	PreviousTemperature domain.Temperature
	PreviousStatus      domain.Status
	StatusChange        *domain.ChangeHistoryEntry
	FollowUpRescheduled bool
}

func (o Outcome) TemperatureChanged() bool { return o.Lead.Temperature != o.PreviousTemperature }
func (o Outcome) ScoreChanged() bool       { return o.Lead.LeadScore != o.PreviousScore }

// Pipeline wires the pure engines to the store.
type Pipeline struct {
	store     Store
	scorer    Scorer
	machine   *temperature.Machine
	followups FollowUpPlanner
	bus       events.Bus
	now       func() time.Time
}

// New creates a pipeline. bus may be nil when no events should be published.
func New(store Store, scorer Scorer, machine *temperature.Machine, followups FollowUpPlanner, bus events.Bus) *Pipeline {
	return &Pipeline{
		store:     store,
		scorer:    scorer,
		machine:   machine,
		followups: followups,
		bus:       bus,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Recompute loads a lead and runs a full pass on it.
func (p *Pipeline) Recompute(ctx context.Context, tenantID uuid.UUID, leadID int64, opts Options) (Outcome, error) {
	lead, err := p.store.GetByID(ctx, tenantID, leadID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load lead %d: %w", leadID, err)
	}
	return p.Run(ctx, lead, opts)
}

// Run evaluates and persists one pass over lead.
func (p *Pipeline) Run(ctx context.Context, lead domain.Lead, opts Options) (Outcome, error) {
	out, err := p.Evaluate(ctx, lead, opts)
	if err != nil {
		return Outcome{}, err
	}
	if err := p.persist(ctx, out); err != nil {
		return Outcome{}, err
	}
	p.publish(ctx, out)
	return out, nil
}

// Evaluate computes a pass without writing anything.
func (p *Pipeline) Evaluate(ctx context.Context, lead domain.Lead, opts Options) (Outcome, error) {
	now := p.now()
	out := Outcome{
		PreviousScore:       lead.LeadScore,
		PreviousTemperature: lead.Temperature,
		PreviousStatus:      lead.Status,
	}

	interactions, err := p.store.ListInteractionsSince(ctx, lead.OrganizationID, lead.ID, now.Add(-historyWindow))
	if err != nil {
		return Outcome{}, fmt.Errorf("load interactions for lead %d: %w", lead.ID, err)
	}

	result, err := p.scorer.Compute(&lead, interactions, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("score lead %d: %w", lead.ID, err)
	}
	trigger := opts.Trigger
	if trigger == "" {
		trigger = "recalculated"
	}
	scoring.Apply(&lead, result, scoring.Reason(trigger, result), now)
	out.Score = result

	if opts.Progression != nil {
		if tr, ok := opts.Progression.Evaluate(lead, now); ok && domain.CanTransition(lead.Status, tr.To) {
			entry, err := lead.ApplyStatusChange(tr.To, tr.Reason, "automated progression", "", nil, now)
			if err != nil {
				return Outcome{}, err
			}
			out.StatusChange = &entry
		}
	}

	lead.Temperature = p.machine.Next(p.machine.InputFor(lead, interactions, now))

	if lead.Temperature != out.PreviousTemperature || opts.PriorityChanged || lead.NextFollowUpDate == nil {
		next := p.followups.Next(ctx, lead.OrganizationID, lead.Temperature, lead.Priority)
		lead.NextFollowUpDate = &next
		out.FollowUpRescheduled = true
	}

	lead.DaysSinceLastResponse = daysSinceLastResponse(lead, interactions, now)
	out.Lead = lead
	return out, nil
}

// persist writes the pass as one unit. A lead whose status moved after it
// was read yields repository.ErrConflict and nothing is written.
func (p *Pipeline) persist(ctx context.Context, out Outcome) error {
	lead := out.Lead
	derived := repository.Derived{
		LeadScore:             lead.LeadScore,
		ScoringData:           lead.ScoringData,
		Temperature:           lead.Temperature,
		DaysSinceLastResponse: lead.DaysSinceLastResponse,
	}
	if out.FollowUpRescheduled {
		derived.NextFollowUpDate = lead.NextFollowUpDate
	}
	ev := repository.Evaluation{
		PriorStatus:  out.PreviousStatus,
		StatusChange: out.StatusChange,
		Derived:      derived,
		ScoreEntry:   lead.ScoreHistory[len(lead.ScoreHistory)-1],
	}
	if err := p.store.SaveEvaluation(ctx, lead.OrganizationID, lead.ID, ev); err != nil {
		return fmt.Errorf("save evaluation of lead %d: %w", lead.ID, err)
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, out Outcome) {
	if p.bus == nil {
		return
	}
	lead := out.Lead

	if out.ScoreChanged() {
		p.bus.Publish(ctx, events.LeadScoreRecalculated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			TenantID:  lead.OrganizationID,
			Score:     lead.LeadScore,
			Reason:    lead.ScoreHistory[len(lead.ScoreHistory)-1].Reason,
		})
	}
	if out.TemperatureChanged() {
		p.bus.Publish(ctx, events.LeadTemperatureChanged{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     lead.ID,
			TenantID:   lead.OrganizationID,
			AssignedTo: lead.AssignedTo,
			From:       string(out.PreviousTemperature),
			To:         string(lead.Temperature),
		})
	}
	if out.StatusChange != nil {
		p.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     lead.ID,
			TenantID:   lead.OrganizationID,
			AssignedTo: lead.AssignedTo,
			From:       string(out.StatusChange.OldStatus),
			To:         string(out.StatusChange.NewStatus),
			Reason:     out.StatusChange.Reason,
			Automated:  true,
		})
	}
}

func daysSinceLastResponse(lead domain.Lead, interactions []domain.Interaction, now time.Time) int {
	var last *time.Time
	for i := range interactions {
		it := interactions[i]
		if it.Direction != domain.DirectionInbound {
			continue
		}
		if last == nil || it.OccurredAt.After(*last) {
			last = &interactions[i].OccurredAt
		}
	}
	if last == nil {
		if lead.LastContactDate != nil {
			last = lead.LastContactDate
		} else {
			last = &lead.CreatedAt
		}
	}
	days := math.Floor(now.Sub(*last).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}
