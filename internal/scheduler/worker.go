package scheduler

import (
	"context"
	"fmt"

	"leadflow_backend/internal/leads/automation"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// BatchRunner executes one automation batch.
type BatchRunner interface {
	RunBatch(ctx context.Context, tenantFilter *uuid.UUID) (automation.Result, error)
}

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	runner       BatchRunner
	tenants      repository.TenantLister
	enqueuer     BatchEnqueuer
	tenantScoped bool
	log          *logger.Logger
}

// NewWorker builds the asynq server. When tenantScoped is set, an unscoped
// batch task fans out into one task per tenant with active leads.
func NewWorker(cfg config.SchedulerConfig, runner BatchRunner, tenants repository.TenantLister, enqueuer BatchEnqueuer, tenantScoped bool, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := newWorker(runner, tenants, enqueuer, tenantScoped, log)
	w.server = server
	return w, nil
}

func newWorker(runner BatchRunner, tenants repository.TenantLister, enqueuer BatchEnqueuer, tenantScoped bool, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:          mux,
		runner:       runner,
		tenants:      tenants,
		enqueuer:     enqueuer,
		tenantScoped: tenantScoped,
		log:          log,
	}
	mux.HandleFunc(TaskAutomationBatch, w.handleAutomationBatch)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleAutomationBatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAutomationBatchPayload(task)
	if err != nil {
		return fmt.Errorf("parse batch payload: %w: %w", err, asynq.SkipRetry)
	}
	tenantID, err := payload.Tenant()
	if err != nil {
		return fmt.Errorf("parse batch tenant: %w: %w", err, asynq.SkipRetry)
	}

	if tenantID == nil && w.tenantScoped {
		return w.fanOut(ctx)
	}

	result, err := w.runner.RunBatch(ctx, tenantID)
	if err != nil {
		if apperr.Is(err, apperr.KindUnavailable) {
			w.log.CollaboratorFailure("lease", "run batch "+automation.ScopeKey(tenantID), err)
		}
		return fmt.Errorf("run batch: %w: %w", err, asynq.SkipRetry)
	}
	if result.Skipped {
		w.log.Info("automation batch skipped, scope already running", "scope", result.Scope)
	}
	return nil
}

func (w *Worker) fanOut(ctx context.Context) error {
	tenants, err := w.tenants.ListActiveTenants(ctx)
	if err != nil {
		return fmt.Errorf("list active tenants: %w: %w", err, asynq.SkipRetry)
	}

	queued := 0
	for _, tenantID := range tenants {
		id := tenantID
		if err := w.enqueuer.EnqueueAutomationBatch(ctx, &id); err != nil {
			w.log.Error("failed to enqueue tenant batch", "tenantId", id, "error", err)
			continue
		}
		queued++
	}
	w.log.Info("automation batch fanned out", "tenants", len(tenants), "queued", queued)
	return nil
}
