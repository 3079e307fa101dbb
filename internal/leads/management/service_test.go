package management

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/leadstest"
	"leadflow_backend/internal/leads/pipeline"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/internal/leads/temperature"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC)

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) last() events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.published) == 0 {
		return nil
	}
	return b.published[len(b.published)-1]
}

type plannerStub struct {
	temp     domain.Temperature
	priority domain.Priority
}

func (p *plannerStub) Next(_ context.Context, _ uuid.UUID, temp domain.Temperature, priority domain.Priority) time.Time {
	p.temp, p.priority = temp, priority
	return now.Add(24 * time.Hour)
}

type fixture struct {
	svc     *Service
	store   *leadstest.Store
	bus     *recordingBus
	planner *plannerStub
	tenant  uuid.UUID
}

func newFixture() fixture {
	store := leadstest.NewStore()
	bus := &recordingBus{}
	planner := &plannerStub{}
	pipe := pipeline.New(store, scoring.NewEngine(scoring.DefaultProfile()), temperature.NewMachine(temperature.DefaultThresholds()), planner, nil).
		WithClock(func() time.Time { return now })
	svc := New(store, planner, pipe, bus, logger.Nop())
	svc.now = func() time.Time { return now }
	return fixture{svc: svc, store: store, bus: bus, planner: planner, tenant: uuid.New()}
}

func ptr[T any](v T) *T { return &v }

func TestCreateDerivesTemperatureAndFirstFollowUp(t *testing.T) {
	f := newFixture()
	actor := uuid.New()

	resp, err := f.svc.Create(context.Background(), f.tenant, &actor, transport.CreateLeadRequest{
		Source:   "Urgent demo request",
		Priority: "critical",
	})
	require.NoError(t, err)

	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "HOT", resp.Temperature)
	assert.Equal(t, "CRITICAL", resp.Priority)
	assert.Equal(t, domain.LifecycleLead, resp.LifecycleStage)
	require.NotNil(t, resp.NextFollowUpDate)
	assert.True(t, resp.NextFollowUpDate.After(now))
	assert.Equal(t, domain.TemperatureHot, f.planner.temp)
	assert.Equal(t, domain.PriorityCritical, f.planner.priority)

	created, ok := f.bus.last().(events.LeadCreated)
	require.True(t, ok, "expected LeadCreated event")
	assert.Equal(t, resp.ID, created.LeadID)
	assert.Equal(t, &actor, created.CreatedBy)
}

func TestCreateDefaultsPriorityAndColdSource(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), f.tenant, nil, transport.CreateLeadRequest{Source: "trade fair scan"})
	require.NoError(t, err)
	assert.Equal(t, "MEDIUM", resp.Priority)
	assert.Equal(t, "COLD", resp.Temperature)
}

func TestCreateRequiresTenant(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), uuid.Nil, nil, transport.CreateLeadRequest{Source: "referral"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetByIDPublishesViewAndMapsNotFound(t *testing.T) {
	f := newFixture()
	lead := f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now})

	_, err := f.svc.GetByID(context.Background(), f.tenant, lead.ID, nil)
	require.NoError(t, err)
	_, ok := f.bus.last().(events.LeadViewed)
	assert.True(t, ok)

	_, err = f.svc.GetByID(context.Background(), uuid.New(), lead.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "other tenants must not see the lead")
}

func TestUpdatePublishesChangedFields(t *testing.T) {
	f := newFixture()
	lead := f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusPending, Priority: domain.PriorityLow, CreatedAt: now, UpdatedAt: now})

	resp, err := f.svc.Update(context.Background(), f.tenant, lead.ID, nil, transport.UpdateLeadRequest{
		Priority: ptr("HIGH"),
		Industry: ptr("software"),
	})
	require.NoError(t, err)
	assert.Equal(t, "HIGH", resp.Priority)

	updated, ok := f.bus.last().(events.LeadUpdated)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"priority", "industry"}, updated.ChangedFields)
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	f := newFixture()
	lead := f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusPending})

	_, err := f.svc.Update(context.Background(), f.tenant, lead.ID, nil, transport.UpdateLeadRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestChangeStatusFollowsTransitionTable(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	lead := f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusPending, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)})

	_, err := f.svc.ChangeStatus(context.Background(), f.tenant, lead.ID, &actor, transport.ChangeStatusRequest{Status: "CONVERTED", Reason: "signed"})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "PENDING cannot jump to CONVERTED")

	_, err = f.svc.ChangeStatus(context.Background(), f.tenant, lead.ID, &actor, transport.ChangeStatusRequest{Status: "PENDING", Reason: "noop"})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "same status must be rejected")

	resp, err := f.svc.ChangeStatus(context.Background(), f.tenant, lead.ID, &actor, transport.ChangeStatusRequest{Status: "review", Reason: "qualified on call"})
	require.NoError(t, err)
	assert.Equal(t, "REVIEW", resp.Status)
	assert.Equal(t, domain.LifecycleQualifying, resp.LifecycleStage)

	saved := f.store.Lead(lead.ID)
	assert.Equal(t, domain.StatusReview, saved.Status)
	assert.True(t, saved.UpdatedAt.Equal(now))
	require.Len(t, saved.ChangeHistory, 1)
	assert.Equal(t, domain.StatusPending, saved.ChangeHistory[0].OldStatus)
	assert.Equal(t, &actor, saved.ChangeHistory[0].ActorID)

	changed, ok := f.bus.last().(events.LeadStatusChanged)
	require.True(t, ok)
	assert.False(t, changed.Automated)
	assert.Equal(t, "PENDING", changed.From)
	assert.Equal(t, "REVIEW", changed.To)
}

func TestRecordInteractionUpdatesAggregates(t *testing.T) {
	f := newFixture()
	lead := f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusReview, DaysSinceLastResponse: 9})
	hours := 10.0

	_, err := f.svc.RecordInteraction(context.Background(), f.tenant, lead.ID, nil, transport.RecordInteractionRequest{
		Kind: "email", Direction: "outbound",
	})
	require.NoError(t, err)
	assert.Equal(t, 9, f.store.Lead(lead.ID).DaysSinceLastResponse, "outbound touches keep the response clock running")

	resp, err := f.svc.RecordInteraction(context.Background(), f.tenant, lead.ID, nil, transport.RecordInteractionRequest{
		Kind: "Call", Direction: "inbound", ResponseHours: &hours,
	})
	require.NoError(t, err)
	assert.Equal(t, "call", resp.Kind)

	saved := f.store.Lead(lead.ID)
	assert.Equal(t, 2, saved.TotalInteractions)
	assert.Equal(t, 1, saved.TimedResponses)
	assert.InDelta(t, 10.0, saved.AverageResponseTime, 1e-9, "untimed interactions must not dilute the average")
	assert.Equal(t, 0, saved.DaysSinceLastResponse)
	require.NotNil(t, saved.LastContactDate)

	updated, ok := f.bus.last().(events.LeadUpdated)
	require.True(t, ok)
	assert.Equal(t, []string{"interactions"}, updated.ChangedFields)
}

// staleReader serves a fixed snapshot so a write can race a change that
// happened after the read.
type staleReader struct {
	*leadstest.Store
	snapshot domain.Lead
}

func (r staleReader) GetByID(context.Context, uuid.UUID, int64) (domain.Lead, error) {
	return r.snapshot, nil
}

func TestChangeStatusRejectsStaleRead(t *testing.T) {
	f := newFixture()
	lead := f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusReview, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)})
	snapshot := f.store.Lead(lead.ID)

	require.NoError(t, f.store.UpdateStatus(context.Background(), f.tenant, lead.ID, domain.ChangeHistoryEntry{
		Timestamp: now, OldStatus: domain.StatusReview, NewStatus: domain.StatusCancelled, Reason: "customer withdrew",
	}))

	svc := New(staleReader{Store: f.store, snapshot: snapshot}, f.planner, nil, f.bus, logger.Nop())
	svc.now = func() time.Time { return now }
	_, err := svc.ChangeStatus(context.Background(), f.tenant, lead.ID, nil, transport.ChangeStatusRequest{Status: "APPROVED", Reason: "budget confirmed"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	saved := f.store.Lead(lead.ID)
	assert.Equal(t, domain.StatusCancelled, saved.Status)
	assert.Len(t, saved.ChangeHistory, 1)
}

func TestRecordInteractionRejectsFutureTimestamps(t *testing.T) {
	f := newFixture()
	lead := f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusReview})
	future := now.Add(48 * time.Hour)

	_, err := f.svc.RecordInteraction(context.Background(), f.tenant, lead.ID, nil, transport.RecordInteractionRequest{
		Kind: "email", Direction: "outbound", OccurredAt: &future,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPreviewScoreDoesNotPersist(t *testing.T) {
	f := newFixture()
	lead := f.store.Put(domain.Lead{
		OrganizationID: f.tenant,
		Status:         domain.StatusPending,
		Temperature:    domain.TemperatureCold,
		CompanySize:    "enterprise",
		Qualification:  domain.Qualification{BudgetConfirmed: true, NeedConfirmed: true},
		CreatedAt:      now.Add(-time.Hour),
		UpdatedAt:      now.Add(-time.Hour),
	})

	preview, err := f.svc.PreviewScore(context.Background(), f.tenant, lead.ID)
	require.NoError(t, err)
	assert.Greater(t, preview.Score, 0)
	assert.Equal(t, preview.Score, preview.Breakdown.Engagement+preview.Breakdown.Demographic+preview.Breakdown.Behavioral+preview.Breakdown.Fit)

	saved := f.store.Lead(lead.ID)
	assert.Equal(t, 0, saved.LeadScore)
	assert.Empty(t, saved.ScoreHistory)
}

func TestListPaginatesAndFilters(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusPending, Temperature: domain.TemperatureWarm})
	}
	f.store.Put(domain.Lead{OrganizationID: f.tenant, Status: domain.StatusReview, Temperature: domain.TemperatureHot})

	resp, err := f.svc.List(context.Background(), f.tenant, transport.ListLeadsRequest{Status: "PENDING", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Items, 2)

	_, err = f.svc.List(context.Background(), f.tenant, transport.ListLeadsRequest{AssignedTo: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
