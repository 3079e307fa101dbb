package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusDelivered      Status = "delivered"
	StatusFailed         Status = "failed"
	errRepoNotConfigured        = "outbox repository not configured"
)

type InsertParams struct {
	TenantID  uuid.UUID
	UserIDs   []uuid.UUID
	EventType string
	Payload   any
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one pending row per recipient in a single transaction and
// returns the new row ids in recipient order.
func (r *Repository) Insert(ctx context.Context, p InsertParams) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}
	if p.TenantID == uuid.Nil {
		return nil, fmt.Errorf("tenantId is required")
	}
	if p.EventType == "" {
		return nil, fmt.Errorf("eventType is required")
	}
	if len(p.UserIDs) == 0 {
		return nil, nil
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	ids := make([]uuid.UUID, 0, len(p.UserIDs))
	for _, userID := range p.UserIDs {
		id := uuid.New()
		ids = append(ids, id)
		batch.Queue(
			`INSERT INTO notification_outbox (id, tenant_id, user_id, event_type, payload, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, p.TenantID, userID, p.EventType, payloadBytes, string(StatusPending), now,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}
