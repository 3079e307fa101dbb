package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers the automation batch on a cron cadence.
type Periodic struct {
	scheduler *asynq.Scheduler
	entryID   string
	log       *logger.Logger
}

// NewPeriodic registers an unscoped batch task under cronSpec. uniqueFor
// keeps a second tick from queueing while the first task is still pending.
func NewPeriodic(cfg config.SchedulerConfig, cronSpec string, uniqueFor time.Duration, log *logger.Logger) (*Periodic, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	task, err := NewAutomationBatchTask(AutomationBatchPayload{})
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
	opts := []asynq.Option{asynq.Queue(queue), asynq.MaxRetry(0)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}
	entryID, err := scheduler.Register(cronSpec, task, opts...)
	if err != nil {
		return nil, fmt.Errorf("register automation batch %q: %w", cronSpec, err)
	}

	return &Periodic{scheduler: scheduler, entryID: entryID, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	p.log.Info("automation batch scheduled", "entryId", p.entryID)

	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
