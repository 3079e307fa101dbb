// Package leadstest provides in-memory fakes for the leads packages' tests.
package leadstest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Store is a concurrency-safe in-memory repository.LeadsRepository.
type Store struct {
	mu           sync.Mutex
	nextID       int64
	leads        map[int64]domain.Lead
	interactions map[int64][]domain.Interaction

	// FailSave makes SaveEvaluation fail for the given lead ids.
	FailSave map[int64]error
	// PanicOn makes ListInteractionsSince panic for the given lead ids.
	PanicOn map[int64]bool

	// PageCalls records every ListActivePage filter received.
	PageCalls []repository.PageFilter
}

var _ repository.LeadsRepository = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		leads:        make(map[int64]domain.Lead),
		interactions: make(map[int64][]domain.Interaction),
		FailSave:     make(map[int64]error),
		PanicOn:      make(map[int64]bool),
	}
}

// Put inserts or replaces a lead, assigning an id when it has none.
func (s *Store) Put(lead domain.Lead) domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == 0 {
		s.nextID++
		lead.ID = s.nextID
	} else if lead.ID > s.nextID {
		s.nextID = lead.ID
	}
	s.leads[lead.ID] = cloneLead(lead)
	return lead
}

// Lead returns a copy of the stored lead.
func (s *Store) Lead(id int64) domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLead(s.leads[id])
}

// AddInteraction stores an interaction without touching aggregates.
func (s *Store) AddInteraction(it domain.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[it.LeadID] = append(s.interactions[it.LeadID], it)
}

func (s *Store) GetByID(_ context.Context, tenantID uuid.UUID, id int64) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok || lead.OrganizationID != tenantID || lead.IsDeleted() {
		return domain.Lead{}, repository.ErrNotFound
	}
	return cloneLead(lead), nil
}

func (s *Store) List(_ context.Context, params repository.ListParams) ([]domain.Lead, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]domain.Lead, 0)
	for _, lead := range s.sortedLocked() {
		if lead.OrganizationID != params.TenantID || lead.IsDeleted() {
			continue
		}
		if params.Status != nil && lead.Status != *params.Status {
			continue
		}
		if params.Temperature != nil && lead.Temperature != *params.Temperature {
			continue
		}
		if params.AssignedTo != nil && (lead.AssignedTo == nil || *lead.AssignedTo != *params.AssignedTo) {
			continue
		}
		matched = append(matched, lead)
	}
	total := len(matched)
	start := min(max(params.Offset, 0), total)
	end := total
	if params.Limit > 0 {
		end = min(start+params.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *Store) ListActivePage(_ context.Context, filter repository.PageFilter) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PageCalls = append(s.PageCalls, filter)
	page := make([]domain.Lead, 0, filter.Limit)
	for _, lead := range s.sortedLocked() {
		if lead.ID <= filter.AfterID || !lead.IsActive() {
			continue
		}
		if filter.TenantID != nil && lead.OrganizationID != *filter.TenantID {
			continue
		}
		page = append(page, lead)
		if len(page) == filter.Limit {
			break
		}
	}
	return page, nil
}

func (s *Store) ListActiveTenants(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	out := make([]uuid.UUID, 0)
	for _, lead := range s.sortedLocked() {
		if lead.IsActive() && !seen[lead.OrganizationID] {
			seen[lead.OrganizationID] = true
			out = append(out, lead.OrganizationID)
		}
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, p repository.CreateLeadParams) (domain.Lead, error) {
	now := time.Now().UTC()
	lead := domain.Lead{
		OrganizationID:       p.OrganizationID,
		BranchID:             p.BranchID,
		AssignedTo:           p.AssignedTo,
		CreatedBy:            p.CreatedBy,
		Source:               p.Source,
		Status:               p.Status,
		Temperature:          p.Temperature,
		Priority:             p.Priority,
		LifecycleStage:       p.LifecycleStage,
		CompanySize:          p.CompanySize,
		Industry:             p.Industry,
		ContactRole:          p.ContactRole,
		BudgetAmount:         p.BudgetAmount,
		PurchaseTimelineDays: p.PurchaseTimelineDays,
		ProductInterest:      p.ProductInterest,
		Qualification:        p.Qualification,
		ContentEngagement:    p.ContentEngagement,
		NextFollowUpDate:     p.NextFollowUpDate,
		ChangeHistory:        p.ChangeHistory,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return s.Put(lead), nil
}

func (s *Store) UpdateFields(_ context.Context, tenantID uuid.UUID, id int64, p repository.UpdateLeadParams) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok || lead.OrganizationID != tenantID || lead.IsDeleted() {
		return domain.Lead{}, repository.ErrNotFound
	}
	if p.BranchID != nil {
		lead.BranchID = p.BranchID
	}
	if p.AssignedTo != nil {
		lead.AssignedTo = p.AssignedTo
	}
	if p.Priority != nil {
		lead.Priority = *p.Priority
	}
	if p.CompanySize != nil {
		lead.CompanySize = *p.CompanySize
	}
	if p.Industry != nil {
		lead.Industry = *p.Industry
	}
	if p.ContactRole != nil {
		lead.ContactRole = *p.ContactRole
	}
	if p.BudgetAmount != nil {
		lead.BudgetAmount = *p.BudgetAmount
	}
	if p.PurchaseTimelineDays != nil {
		lead.PurchaseTimelineDays = *p.PurchaseTimelineDays
	}
	if p.ProductInterest != nil {
		lead.ProductInterest = append([]string(nil), (*p.ProductInterest)...)
	}
	if p.Qualification != nil {
		lead.Qualification = *p.Qualification
	}
	if p.ContentEngagement != nil {
		lead.ContentEngagement = *p.ContentEngagement
	}
	lead.UpdatedAt = time.Now().UTC()
	s.leads[id] = lead
	return cloneLead(lead), nil
}

// liveLocked returns the lead when it exists, belongs to tenantID and is not
// soft-deleted.
func (s *Store) liveLocked(tenantID uuid.UUID, id int64) (domain.Lead, error) {
	lead, ok := s.leads[id]
	if !ok || lead.OrganizationID != tenantID || lead.IsDeleted() {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func applyStatus(lead *domain.Lead, entry domain.ChangeHistoryEntry) error {
	if lead.Status != entry.OldStatus {
		return repository.ErrConflict
	}
	lead.Status = entry.NewStatus
	lead.LifecycleStage = domain.LifecycleStageFor(entry.NewStatus)
	lead.UpdatedAt = entry.Timestamp
	lead.ChangeHistory = append(append([]domain.ChangeHistoryEntry(nil), lead.ChangeHistory...), entry)
	return nil
}

func applyDerived(lead *domain.Lead, d repository.Derived) {
	lead.LeadScore = d.LeadScore
	lead.ScoringData = d.ScoringData
	lead.Temperature = d.Temperature
	lead.DaysSinceLastResponse = d.DaysSinceLastResponse
	if d.NextFollowUpDate != nil {
		next := *d.NextFollowUpDate
		lead.NextFollowUpDate = &next
	}
}

func (s *Store) UpdateStatus(_ context.Context, tenantID uuid.UUID, id int64, entry domain.ChangeHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, err := s.liveLocked(tenantID, id)
	if err != nil {
		return err
	}
	if err := applyStatus(&lead, entry); err != nil {
		return err
	}
	s.leads[id] = lead
	return nil
}

// SaveEvaluation applies the whole pass to a copy and stores it only when
// every step succeeds.
func (s *Store) SaveEvaluation(_ context.Context, tenantID uuid.UUID, id int64, ev repository.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, err := s.liveLocked(tenantID, id)
	if err != nil {
		return err
	}
	if lead.Status != ev.PriorStatus {
		return repository.ErrConflict
	}
	if ev.StatusChange != nil {
		if err := applyStatus(&lead, *ev.StatusChange); err != nil {
			return err
		}
	}
	if err := s.FailSave[id]; err != nil {
		return err
	}
	applyDerived(&lead, ev.Derived)
	lead.ScoreHistory = append(append([]domain.ScoreHistoryEntry(nil), lead.ScoreHistory...), ev.ScoreEntry)
	s.leads[id] = lead
	return nil
}

func (s *Store) RecordInteraction(_ context.Context, p repository.RecordInteractionParams) (domain.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[p.LeadID]
	if !ok || lead.OrganizationID != p.OrganizationID || lead.IsDeleted() {
		return domain.Interaction{}, repository.ErrNotFound
	}
	it := domain.Interaction{
		ID:             int64(len(s.interactions[p.LeadID]) + 1),
		LeadID:         p.LeadID,
		OrganizationID: p.OrganizationID,
		Kind:           p.Kind,
		Direction:      p.Direction,
		ResponseHours:  p.ResponseHours,
		OccurredAt:     p.OccurredAt,
		ActorID:        p.ActorID,
	}
	s.interactions[p.LeadID] = append(s.interactions[p.LeadID], it)

	if lead.LastContactDate == nil || p.OccurredAt.After(*lead.LastContactDate) {
		at := p.OccurredAt
		lead.LastContactDate = &at
	}
	if p.ResponseHours != nil {
		lead.AverageResponseTime = (lead.AverageResponseTime*float64(lead.TimedResponses) + *p.ResponseHours) / float64(lead.TimedResponses+1)
		lead.TimedResponses++
	}
	lead.TotalInteractions++
	if p.Direction == domain.DirectionInbound {
		lead.DaysSinceLastResponse = 0
	}
	s.leads[p.LeadID] = lead
	return it, nil
}

func (s *Store) ListInteractionsSince(_ context.Context, tenantID uuid.UUID, leadID int64, since time.Time) ([]domain.Interaction, error) {
	s.mu.Lock()
	panicking := s.PanicOn[leadID]
	items := make([]domain.Interaction, 0)
	for _, it := range s.interactions[leadID] {
		if it.OrganizationID == tenantID && !it.OccurredAt.Before(since) {
			items = append(items, it)
		}
	}
	s.mu.Unlock()
	if panicking {
		panic("leadstest: injected panic")
	}
	return items, nil
}

func (s *Store) sortedLocked() []domain.Lead {
	out := make([]domain.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		out = append(out, cloneLead(lead))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneLead(lead domain.Lead) domain.Lead {
	lead.ProductInterest = append([]string(nil), lead.ProductInterest...)
	lead.ScoreHistory = append([]domain.ScoreHistoryEntry(nil), lead.ScoreHistory...)
	lead.ChangeHistory = append([]domain.ChangeHistoryEntry(nil), lead.ChangeHistory...)
	return lead
}

// ErrInjected is a convenience error for failure injection.
var ErrInjected = errors.New("leadstest: injected failure")
