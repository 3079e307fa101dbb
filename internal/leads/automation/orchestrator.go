// Package automation drives the periodic re-evaluation of every active
// lead: paged reads, a bounded worker pool per page, per-lead failure
// isolation and a lease that keeps runs on the same scope from overlapping.
package automation

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/pipeline"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/rules"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/lease"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Runner re-evaluates one lead. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, lead domain.Lead, opts pipeline.Options) (pipeline.Outcome, error)
}

// Config bounds a batch run.
type Config struct {
	PageSize    int
	Workers     int
	LeaseTTL    time.Duration
	Progression rules.Progression
}

// DefaultConfig returns the built-in batch settings.
func DefaultConfig() Config {
	return Config{
		PageSize:    50,
		Workers:     8,
		LeaseTTL:    2 * time.Hour,
		Progression: rules.DefaultProgression(),
	}
}

// ItemFailure records one lead whose processing failed. The batch continues.
type ItemFailure struct {
	LeadID   int64
	TenantID uuid.UUID
	Err      error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("lead %d: %v", f.LeadID, f.Err)
}

func (f ItemFailure) Unwrap() error { return f.Err }

// Result summarizes a batch run. Stale counts leads left untouched because
// their status moved after the page was read; they are not failures.
type Result struct {
	Scope              string
	Processed          int
	Failures           []ItemFailure
	Skipped            bool
	Stale              int
	StatusChanges      int
	TemperatureChanges int
	Duration           time.Duration
}

// Orchestrator runs batches.
type Orchestrator struct {
	pager  repository.ActivePager
	runner Runner
	leaser lease.Leaser
	cfg    Config
	log    *logger.Logger
}

// NewOrchestrator creates a batch orchestrator. Non-positive sizes fall
// back to DefaultConfig values.
func NewOrchestrator(pager repository.ActivePager, runner Runner, leaser lease.Leaser, cfg Config, log *logger.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = def.LeaseTTL
	}
	return &Orchestrator{pager: pager, runner: runner, leaser: leaser, cfg: cfg, log: log}
}

// ScopeKey is the lease key guarding runs over tenantFilter.
func ScopeKey(tenantFilter *uuid.UUID) string {
	if tenantFilter == nil {
		return "automation:all"
	}
	return "automation:" + tenantFilter.String()
}

// RunBatch re-evaluates every active lead in scope. If another run holds
// the scope the call returns immediately with Skipped set. Per-lead
// failures are collected in Result.Failures; an error is returned only
// when the lease or a page read fails, in which case Result still holds
// the work done so far.
func (o *Orchestrator) RunBatch(ctx context.Context, tenantFilter *uuid.UUID) (Result, error) {
	scope := ScopeKey(tenantFilter)
	result := Result{Scope: scope}
	log := o.log.WithContext(ctx)

	held, err := o.leaser.Acquire(ctx, scope, o.cfg.LeaseTTL)
	if errors.Is(err, lease.ErrHeld) {
		result.Skipped = true
		batchRunsTotal.WithLabelValues("skipped").Inc()
		log.BatchRun(scope, 0, 0, true, 0)
		return result, nil
	}
	if err != nil {
		batchRunsTotal.WithLabelValues("aborted").Inc()
		return result, apperr.Unavailable("acquire automation lease", err)
	}
	// Runs are not cancelled mid-way; the lease bounds them instead.
	runCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := held.Release(runCtx); err != nil {
			log.CollaboratorFailure("lease", "release", err)
		}
	}()

	start := time.Now()
	var afterID int64
	for {
		page, err := o.pager.ListActivePage(runCtx, repository.PageFilter{TenantID: tenantFilter, AfterID: afterID, Limit: o.cfg.PageSize})
		if err != nil {
			result.Duration = time.Since(start)
			batchRunsTotal.WithLabelValues("aborted").Inc()
			log.DatabaseError("automation.list_active_page", err)
			return result, apperr.Unavailable("read active leads", err)
		}
		if len(page) == 0 {
			break
		}

		o.processPage(runCtx, page, &result)

		afterID = page[len(page)-1].ID
		if len(page) < o.cfg.PageSize {
			break
		}
	}

	result.Duration = time.Since(start)
	batchRunsTotal.WithLabelValues("completed").Inc()
	batchDuration.Observe(result.Duration.Seconds())
	log.BatchRun(scope, result.Processed, len(result.Failures), false, result.Duration)
	return result, nil
}

func (o *Orchestrator) processPage(ctx context.Context, page []domain.Lead, result *Result) {
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Workers)

	for _, lead := range page {
		g.Go(func() error {
			out, err := o.processOne(ctx, lead)

			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, repository.ErrConflict) {
				result.Stale++
				staleItemsTotal.Inc()
				return nil
			}
			if err != nil {
				result.Failures = append(result.Failures, ItemFailure{LeadID: lead.ID, TenantID: lead.OrganizationID, Err: err})
				itemFailuresTotal.Inc()
				return nil
			}
			result.Processed++
			leadsProcessedTotal.Inc()
			if out.StatusChange != nil {
				result.StatusChanges++
				statusTransitionsTotal.WithLabelValues(string(out.StatusChange.OldStatus), string(out.StatusChange.NewStatus)).Inc()
			}
			if out.TemperatureChanged() {
				result.TemperatureChanges++
				temperatureTransitionsTotal.WithLabelValues(string(out.PreviousTemperature), string(out.Lead.Temperature)).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) processOne(ctx context.Context, lead domain.Lead) (out pipeline.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			o.log.Error("automation: lead processing panicked",
				"leadId", lead.ID,
				"tenantId", lead.OrganizationID,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	progression := o.cfg.Progression
	out, err = o.runner.Run(ctx, lead, pipeline.Options{Trigger: "batch", Progression: &progression})
	if errors.Is(err, repository.ErrConflict) {
		o.log.Info("automation: lead changed during run, skipped",
			"leadId", lead.ID,
			"tenantId", lead.OrganizationID)
		return out, err
	}
	if err != nil {
		o.log.Warn("automation: lead processing failed",
			"leadId", lead.ID,
			"tenantId", lead.OrganizationID,
			"error", err)
	}
	return out, err
}
