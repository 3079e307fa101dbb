// Package management handles the synchronous lead mutation path.
// Every mutation commits first and then publishes an event; scoring,
// temperature and notifications run off the bus and cannot fail the caller.
package management

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/pipeline"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	msgLeadNotFound = "lead not found"
)

// Repository defines the data access interface needed by the management service.
// This is a consumer-driven interface - only what management needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	repository.StatusWriter
	RecordInteraction(ctx context.Context, params repository.RecordInteractionParams) (domain.Interaction, error)
}

// FollowUpPlanner picks the first contact slot for a new lead.
type FollowUpPlanner interface {
	Next(ctx context.Context, tenantID uuid.UUID, temp domain.Temperature, priority domain.Priority) time.Time
}

// Evaluator runs a dry pipeline pass.
type Evaluator interface {
	Evaluate(ctx context.Context, lead domain.Lead, opts pipeline.Options) (pipeline.Outcome, error)
}

// Service handles lead management operations.
type Service struct {
	repo      Repository
	followups FollowUpPlanner
	evaluator Evaluator
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new lead management service.
func New(repo Repository, followups FollowUpPlanner, evaluator Evaluator, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		followups: followups,
		evaluator: evaluator,
		eventBus:  eventBus,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new PENDING lead with its source-derived temperature and
// a first follow-up one working day out.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if tenantID == uuid.Nil {
		return transport.LeadResponse{}, apperr.Validation("tenant is required")
	}

	priority := domain.PriorityMedium
	if req.Priority != "" {
		p, ok := domain.ParsePriority(req.Priority)
		if !ok {
			return transport.LeadResponse{}, apperr.Validation("invalid priority")
		}
		priority = p
	}

	source := strings.TrimSpace(req.Source)
	temp := domain.InitialTemperature(source)
	next := s.followups.Next(ctx, tenantID, temp, priority)

	params := repository.CreateLeadParams{
		OrganizationID:       tenantID,
		BranchID:             req.BranchID,
		AssignedTo:           req.AssignedTo,
		CreatedBy:            actorID,
		Source:               source,
		Status:               domain.StatusPending,
		Temperature:          temp,
		Priority:             priority,
		LifecycleStage:       domain.LifecycleStageFor(domain.StatusPending),
		CompanySize:          strings.TrimSpace(req.CompanySize),
		Industry:             strings.TrimSpace(req.Industry),
		ContactRole:          strings.TrimSpace(req.ContactRole),
		BudgetAmount:         req.BudgetAmount,
		PurchaseTimelineDays: req.PurchaseTimelineDays,
		ProductInterest:      req.ProductInterest,
		Qualification:        toQualification(req.Qualification),
		NextFollowUpDate:     &next,
	}
	if req.ContentEngagement != nil {
		params.ContentEngagement = toContentEngagement(*req.ContentEngagement)
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		TenantID:   tenantID,
		AssignedTo: lead.AssignedTo,
		CreatedBy:  actorID,
		Source:     lead.Source,
	})
	s.log.Info("lead created", "leadId", lead.ID, "tenantId", tenantID, "temperature", lead.Temperature)

	return ToLeadResponse(lead), nil
}

// GetByID retrieves a lead and records the view.
func (s *Service) GetByID(ctx context.Context, tenantID uuid.UUID, id int64, viewerID *uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.load(ctx, tenantID, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.eventBus.Publish(ctx, events.LeadViewed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		TenantID:  tenantID,
		ViewerID:  viewerID,
	})
	return ToLeadResponse(lead), nil
}

// List returns a page of leads for the tenant.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		TenantID: tenantID,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	}
	if req.Status != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return transport.LeadListResponse{}, apperr.Validation("invalid status filter")
		}
		params.Status = &status
	}
	if req.Temperature != "" {
		temp, ok := domain.ParseTemperature(req.Temperature)
		if !ok {
			return transport.LeadListResponse{}, apperr.Validation("invalid temperature filter")
		}
		params.Temperature = &temp
	}
	if req.AssignedTo != "" {
		assignee, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation("invalid assignee filter")
		}
		params.AssignedTo = &assignee
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	totalPages := (total + pageSize - 1) / pageSize

	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update applies a partial update to a lead's descriptive fields.
func (s *Service) Update(ctx context.Context, tenantID uuid.UUID, id int64, actorID *uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateLeadParams{
		BranchID:             req.BranchID,
		AssignedTo:           req.AssignedTo,
		CompanySize:          req.CompanySize,
		Industry:             req.Industry,
		ContactRole:          req.ContactRole,
		BudgetAmount:         req.BudgetAmount,
		PurchaseTimelineDays: req.PurchaseTimelineDays,
		ProductInterest:      req.ProductInterest,
	}
	if req.Priority != nil {
		p, ok := domain.ParsePriority(*req.Priority)
		if !ok {
			return transport.LeadResponse{}, apperr.Validation("invalid priority")
		}
		params.Priority = &p
	}
	if req.Qualification != nil {
		q := toQualification(*req.Qualification)
		params.Qualification = &q
	}
	if req.ContentEngagement != nil {
		c := toContentEngagement(*req.ContentEngagement)
		params.ContentEngagement = &c
	}

	changed := params.ChangedFields()
	if len(changed) == 0 {
		return transport.LeadResponse{}, apperr.Validation("no fields to update")
	}

	lead, err := s.repo.UpdateFields(ctx, tenantID, id, params)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}

	s.eventBus.Publish(ctx, events.LeadUpdated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        id,
		TenantID:      tenantID,
		ActorID:       actorID,
		ChangedFields: changed,
	})
	return ToLeadResponse(lead), nil
}

// ChangeStatus performs a manual status move along the transition table.
func (s *Service) ChangeStatus(ctx context.Context, tenantID uuid.UUID, id int64, actorID *uuid.UUID, req transport.ChangeStatusRequest) (transport.LeadResponse, error) {
	next, ok := domain.ParseStatus(req.Status)
	if !ok {
		return transport.LeadResponse{}, apperr.Validation("invalid status")
	}

	lead, err := s.load(ctx, tenantID, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if lead.Status == next {
		return transport.LeadResponse{}, apperr.Validation("lead already has status " + string(next))
	}
	if !domain.CanTransition(lead.Status, next) {
		return transport.LeadResponse{}, apperr.Validation("cannot move lead from " + string(lead.Status) + " to " + string(next))
	}

	previous := lead.Status
	entry, err := lead.ApplyStatusChange(next, strings.TrimSpace(req.Reason), req.Description, req.NextStep, actorID, s.now())
	if err != nil {
		return transport.LeadResponse{}, apperr.Validation(err.Error())
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, entry); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return transport.LeadResponse{}, apperr.Conflict("lead status changed, reload and retry")
		}
		return transport.LeadResponse{}, mapNotFound(err)
	}

	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     id,
		TenantID:   tenantID,
		AssignedTo: lead.AssignedTo,
		ActorID:    actorID,
		From:       string(previous),
		To:         string(next),
		Reason:     entry.Reason,
	})
	return ToLeadResponse(lead), nil
}

// RecordInteraction appends a touch point and refreshes contact aggregates.
func (s *Service) RecordInteraction(ctx context.Context, tenantID uuid.UUID, id int64, actorID *uuid.UUID, req transport.RecordInteractionRequest) (transport.InteractionResponse, error) {
	occurredAt := s.now()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
		if occurredAt.After(s.now().Add(time.Minute)) {
			return transport.InteractionResponse{}, apperr.Validation("interaction cannot be in the future")
		}
	}

	it, err := s.repo.RecordInteraction(ctx, repository.RecordInteractionParams{
		LeadID:         id,
		OrganizationID: tenantID,
		Kind:           strings.ToLower(req.Kind),
		Direction:      strings.ToLower(req.Direction),
		ResponseHours:  req.ResponseHours,
		OccurredAt:     occurredAt,
		ActorID:        actorID,
	})
	if err != nil {
		return transport.InteractionResponse{}, mapNotFound(err)
	}

	s.eventBus.Publish(ctx, events.LeadUpdated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        id,
		TenantID:      tenantID,
		ActorID:       actorID,
		ChangedFields: []string{"interactions"},
	})
	return ToInteractionResponse(it), nil
}

// PreviewScore shows what a recompute would produce right now without
// saving anything.
func (s *Service) PreviewScore(ctx context.Context, tenantID uuid.UUID, id int64) (transport.ScorePreviewResponse, error) {
	lead, err := s.load(ctx, tenantID, id)
	if err != nil {
		return transport.ScorePreviewResponse{}, err
	}
	out, err := s.evaluator.Evaluate(ctx, lead, pipeline.Options{Trigger: "preview"})
	if err != nil {
		return transport.ScorePreviewResponse{}, err
	}
	return ToScorePreviewResponse(out), nil
}

func (s *Service) load(ctx context.Context, tenantID uuid.UUID, id int64) (domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Lead{}, mapNotFound(err)
	}
	return lead, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	return err
}
