// Package leads provides the lead lifecycle bounded context module.
// This file wires the engines, the event dispatcher and the batch
// orchestrator, and registers the HTTP routes.
package leads

import (
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/automation"
	"leadflow_backend/internal/leads/calendar"
	"leadflow_backend/internal/leads/dispatcher"
	"leadflow_backend/internal/leads/followup"
	"leadflow_backend/internal/leads/handler"
	"leadflow_backend/internal/leads/management"
	"leadflow_backend/internal/leads/pipeline"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/rules"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/internal/leads/temperature"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/rewards"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/lease"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const leasePrefix = "leadflow:lease:"

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	management   *management.Service
	pipeline     *pipeline.Pipeline
	dispatcher   *dispatcher.Dispatcher
	orchestrator *automation.Orchestrator
	repo         *repository.Repository
	followups    *followup.Scheduler
	rewards      *rewards.Ledger
}

// NewModule creates and initializes the leads module with all its dependencies.
// rdb may be nil; the calendar cache is then skipped and batch leases stay
// process-local.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, rdb redis.UniversalClient, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	ruleSet, err := rules.Load(cfg.GetRulesFile())
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)

	var provider followup.CalendarProvider = calendar.NewProvider(calendar.NewRepository(pool))
	if rdb != nil {
		provider = calendar.NewCachedProvider(provider, rdb, cfg.GetCalendarCacheTTL(), log)
	}
	followups := followup.New(provider, log)

	pipe := pipeline.New(repo, scoring.NewEngine(ruleSet.Scoring), temperature.NewMachine(ruleSet.Temperature), followups, eventBus)
	mgmt := management.New(repo, followups, pipe, eventBus, log)

	ledger := rewards.New(pool, log)
	disp := dispatcher.New(pipe, notification.New(pool, log), ledger, log)
	disp.RegisterHandlers(eventBus)

	orch := automation.NewOrchestrator(repo, pipe, newLeaser(cfg, rdb, log), automation.Config{
		PageSize:    cfg.GetAutomationPageSize(),
		Workers:     cfg.GetAutomationWorkers(),
		LeaseTTL:    cfg.GetAutomationLeaseTTL(),
		Progression: ruleSet.Progression,
	}, log)

	return &Module{
		handler:      handler.New(mgmt, val),
		management:   mgmt,
		pipeline:     pipe,
		dispatcher:   disp,
		orchestrator: orch,
		repo:         repo,
		followups:    followups,
		rewards:      ledger,
	}, nil
}

func newLeaser(cfg config.AutomationConfig, rdb redis.UniversalClient, log *logger.Logger) lease.Leaser {
	if cfg.GetAutomationLeaseBackend() == config.LeaseBackendRedis && rdb != nil {
		return lease.NewRedisLeaser(rdb, leasePrefix, log)
	}
	return lease.NewLocalLeaser()
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// Pipeline returns the shared recompute pipeline.
func (m *Module) Pipeline() *pipeline.Pipeline {
	return m.pipeline
}

// Orchestrator returns the batch automation orchestrator.
func (m *Module) Orchestrator() *automation.Orchestrator {
	return m.orchestrator
}

// Repository returns the leads repository.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// FollowUps returns the follow-up scheduler.
func (m *Module) FollowUps() *followup.Scheduler {
	return m.followups
}

// Rewards returns the reward points ledger.
func (m *Module) Rewards() *rewards.Ledger {
	return m.rewards
}

// RegisterRoutes mounts leads routes on the tenant-scoped group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Tenant.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
