package scheduler

import (
	"context"
	"fmt"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// BatchEnqueuer queues automation batch runs.
type BatchEnqueuer interface {
	EnqueueAutomationBatch(ctx context.Context, tenantID *uuid.UUID) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueAutomationBatch queues a run for one tenant, or all tenants when
// tenantID is nil. Batch runs are never retried; the next cadence is the retry.
func (c *Client) EnqueueAutomationBatch(ctx context.Context, tenantID *uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewAutomationBatchTask(payloadFor(tenantID))
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(0))
	return err
}

func connection(cfg config.SchedulerConfig) (asynq.RedisClientOpt, string, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return asynq.RedisClientOpt{}, "", fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return asynq.RedisClientOpt{}, "", err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return opt, queue, nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := db.RedisOptions(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
