// Package dispatcher subscribes to lead events and fans them out to the
// recompute pipeline, the notification outbox and the reward ledger.
// Everything here runs after the mutation that raised the event has been
// committed; failures are logged and never reach the original caller.
package dispatcher

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/pipeline"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Reward amounts.
const (
	PointsLeadCreated   = 5
	PointsLeadApproved  = 25
	PointsLeadConverted = 100
)

// Recomputer reruns the derived-field pipeline for one lead.
type Recomputer interface {
	Recompute(ctx context.Context, tenantID uuid.UUID, leadID int64, opts pipeline.Options) (pipeline.Outcome, error)
}

// Notifier delivers in-app notifications to users.
type Notifier interface {
	Notify(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID, eventType string, payload map[string]any) error
}

// RewardLedger credits gamification points.
type RewardLedger interface {
	AwardPoints(ctx context.Context, userID uuid.UUID, amount int, reason string) error
}

type runState struct {
	rerun bool
	opts  pipeline.Options
}

// Dispatcher routes lead events to collaborators.
type Dispatcher struct {
	recomputer Recomputer
	notifier   Notifier
	rewards    RewardLedger
	log        *logger.Logger

	// One recompute per lead at a time; events arriving mid-run coalesce
	// into a single follow-up run.
	activeRuns map[string]*runState
	runsMu     sync.Mutex
}

// New creates a dispatcher. notifier and rewards may be nil.
func New(recomputer Recomputer, notifier Notifier, rewards RewardLedger, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		recomputer: recomputer,
		notifier:   notifier,
		rewards:    rewards,
		log:        log,
		activeRuns: make(map[string]*runState),
	}
}

// RegisterHandlers subscribes the dispatcher to every lead event it handles.
func (d *Dispatcher) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreatedName, d)
	bus.Subscribe(events.LeadUpdatedName, d)
	bus.Subscribe(events.LeadStatusChangedName, d)
	bus.Subscribe(events.LeadViewedName, d)
	bus.Subscribe(events.LeadTemperatureChangedName, d)
	d.log.Info("lead dispatcher registered event handlers")
}

// Handle implements events.Handler.
func (d *Dispatcher) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		d.onLeadCreated(ctx, e)
	case events.LeadUpdated:
		d.onLeadUpdated(ctx, e)
	case events.LeadStatusChanged:
		d.onLeadStatusChanged(ctx, e)
	case events.LeadViewed:
		d.recompute(ctx, e.TenantID, e.LeadID, pipeline.Options{Trigger: "viewed"})
	case events.LeadTemperatureChanged:
		d.onLeadTemperatureChanged(ctx, e)
	default:
		d.log.Warn("dispatcher: unhandled event type", "event", event.EventName())
	}
	return nil
}

func (d *Dispatcher) onLeadCreated(ctx context.Context, e events.LeadCreated) {
	d.recompute(ctx, e.TenantID, e.LeadID, pipeline.Options{Trigger: "created"})

	d.notify(ctx, e.TenantID, recipients(e.AssignedTo, e.CreatedBy), events.LeadCreatedName, map[string]any{
		"leadId": e.LeadID,
		"source": e.Source,
	})

	if e.CreatedBy != nil {
		d.award(ctx, *e.CreatedBy, PointsLeadCreated, "lead created #"+strconv.FormatInt(e.LeadID, 10))
	}
}

func (d *Dispatcher) onLeadUpdated(ctx context.Context, e events.LeadUpdated) {
	d.recompute(ctx, e.TenantID, e.LeadID, pipeline.Options{
		Trigger:         "updated",
		PriorityChanged: slices.Contains(e.ChangedFields, "priority"),
	})
}

func (d *Dispatcher) onLeadStatusChanged(ctx context.Context, e events.LeadStatusChanged) {
	// Automated changes come out of a pipeline pass that already persisted
	// fresh derived fields.
	if !e.Automated {
		d.recompute(ctx, e.TenantID, e.LeadID, pipeline.Options{Trigger: "status_changed"})
	}

	d.notify(ctx, e.TenantID, recipients(e.AssignedTo, e.ActorID), events.LeadStatusChangedName, map[string]any{
		"leadId":    e.LeadID,
		"from":      e.From,
		"to":        e.To,
		"reason":    e.Reason,
		"automated": e.Automated,
	})

	if e.AssignedTo == nil {
		return
	}
	reason := "lead #" + strconv.FormatInt(e.LeadID, 10) + " moved to " + e.To
	switch domain.Status(e.To) {
	case domain.StatusApproved:
		d.award(ctx, *e.AssignedTo, PointsLeadApproved, reason)
	case domain.StatusConverted:
		d.award(ctx, *e.AssignedTo, PointsLeadConverted, reason)
	}
}

func (d *Dispatcher) onLeadTemperatureChanged(ctx context.Context, e events.LeadTemperatureChanged) {
	if domain.Temperature(e.To) != domain.TemperatureHot {
		return
	}
	d.notify(ctx, e.TenantID, recipients(e.AssignedTo), events.LeadTemperatureChangedName, map[string]any{
		"leadId": e.LeadID,
		"from":   e.From,
		"to":     e.To,
	})
}

func (d *Dispatcher) recompute(ctx context.Context, tenantID uuid.UUID, leadID int64, opts pipeline.Options) {
	key := runKey(tenantID, leadID)
	if !d.markRunning(key, opts) {
		d.log.Debug("dispatcher: recompute already running, coalescing", "leadId", leadID)
		return
	}

	for {
		_, err := d.recomputer.Recompute(ctx, tenantID, leadID, opts)
		if errors.Is(err, repository.ErrConflict) {
			// The status moved between load and save; a fresh load settles it.
			_, err = d.recomputer.Recompute(ctx, tenantID, leadID, opts)
		}
		if err != nil {
			d.log.CollaboratorFailure("pipeline", "recompute lead "+strconv.FormatInt(leadID, 10), err)
		}
		next, again := d.markComplete(key)
		if !again {
			return
		}
		opts = next
	}
}

// markRunning claims the lead. When a run is already active it records a
// rerun request and returns false.
func (d *Dispatcher) markRunning(key string, opts pipeline.Options) bool {
	d.runsMu.Lock()
	defer d.runsMu.Unlock()

	if state, ok := d.activeRuns[key]; ok {
		if state.rerun {
			opts.PriorityChanged = opts.PriorityChanged || state.opts.PriorityChanged
		}
		state.rerun = true
		state.opts = opts
		return false
	}
	d.activeRuns[key] = &runState{}
	return true
}

// markComplete releases the lead, or hands back the options of a pending
// rerun while keeping the claim.
func (d *Dispatcher) markComplete(key string) (pipeline.Options, bool) {
	d.runsMu.Lock()
	defer d.runsMu.Unlock()

	state := d.activeRuns[key]
	if state == nil || !state.rerun {
		delete(d.activeRuns, key)
		return pipeline.Options{}, false
	}
	opts := state.opts
	state.rerun = false
	state.opts = pipeline.Options{}
	return opts, true
}

func (d *Dispatcher) notify(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID, eventType string, payload map[string]any) {
	if d.notifier == nil || len(userIDs) == 0 {
		return
	}
	if err := d.notifier.Notify(ctx, tenantID, userIDs, eventType, payload); err != nil {
		d.log.CollaboratorFailure("notifier", eventType, err)
	}
}

func (d *Dispatcher) award(ctx context.Context, userID uuid.UUID, amount int, reason string) {
	if d.rewards == nil {
		return
	}
	if err := d.rewards.AwardPoints(ctx, userID, amount, reason); err != nil {
		d.log.CollaboratorFailure("rewards", reason, err)
	}
}

func runKey(tenantID uuid.UUID, leadID int64) string {
	return tenantID.String() + ":" + strconv.FormatInt(leadID, 10)
}

// recipients returns the distinct non-nil users.
func recipients(ids ...*uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == nil || *id == uuid.Nil || slices.Contains(out, *id) {
			continue
		}
		out = append(out, *id)
	}
	return out
}
