package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// statusTransitions lists the allowed manual moves. DECLINED and CANCELLED
// can be reactivated back to PENDING; CONVERTED is final.
var statusTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusReview: true, StatusDeclined: true, StatusCancelled: true},
	StatusReview:    {StatusApproved: true, StatusDeclined: true, StatusCancelled: true, StatusPending: true},
	StatusApproved:  {StatusConverted: true, StatusReview: true, StatusCancelled: true},
	StatusDeclined:  {StatusPending: true},
	StatusCancelled: {StatusPending: true},
	StatusConverted: {},
}

// terminalStatuses are excluded from batch re-evaluation.
var terminalStatuses = map[Status]bool{
	StatusConverted: true,
	StatusDeclined:  true,
	StatusCancelled: true,
}

// CanTransition reports whether a move from -> to is permitted.
func CanTransition(from, to Status) bool {
	return statusTransitions[from][to]
}

// IsTerminal returns true for statuses the automation job never touches.
func IsTerminal(status Status) bool {
	return terminalStatuses[status]
}

// IsActive reports whether the lead participates in batch re-evaluation.
func (l Lead) IsActive() bool {
	return !l.IsDeleted() && !IsTerminal(l.Status)
}

// ApplyStatusChange moves the lead to next and returns the history entry
// that must be appended for it. The entry's NewStatus always equals the
// lead's status after the call.
func (l *Lead) ApplyStatusChange(next Status, reason, description, nextStep string, actorID *uuid.UUID, at time.Time) (ChangeHistoryEntry, error) {
	if l.Status == next {
		return ChangeHistoryEntry{}, fmt.Errorf("lead already has status %s", next)
	}
	entry := ChangeHistoryEntry{
		Timestamp:   at,
		OldStatus:   l.Status,
		NewStatus:   next,
		Reason:      reason,
		Description: description,
		NextStep:    nextStep,
		ActorID:     actorID,
	}
	l.Status = next
	l.LifecycleStage = LifecycleStageFor(next)
	l.UpdatedAt = at
	l.ChangeHistory = append(l.ChangeHistory, entry)
	return entry, nil
}
