// Package notification records user notifications raised by lead events.
// Rows land in a transactional outbox; delivery (email, push, in-app) is
// handled by whatever drains the outbox.
package notification

import (
	"context"
	"fmt"

	"leadflow_backend/internal/notification/outbox"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxWriter persists pending notifications.
type OutboxWriter interface {
	Insert(ctx context.Context, p outbox.InsertParams) ([]uuid.UUID, error)
}

// Module is the notification collaborator used by the lead dispatcher.
type Module struct {
	outbox OutboxWriter
	log    *logger.Logger
}

// New creates a notification module backed by the Postgres outbox.
func New(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return NewWithWriter(outbox.New(pool), log)
}

// NewWithWriter creates a notification module over any outbox writer.
func NewWithWriter(w OutboxWriter, log *logger.Logger) *Module {
	return &Module{outbox: w, log: log}
}

// Notify queues one notification per distinct recipient.
func (m *Module) Notify(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID, eventType string, payload map[string]any) error {
	if tenantID == uuid.Nil {
		return apperr.Validation("notification tenant is required")
	}
	recipients := distinct(userIDs)
	if len(recipients) == 0 {
		return nil
	}

	ids, err := m.outbox.Insert(ctx, outbox.InsertParams{
		TenantID:  tenantID,
		UserIDs:   recipients,
		EventType: eventType,
		Payload:   payload,
	})
	if err != nil {
		return apperr.Unavailable("notification outbox unavailable", fmt.Errorf("insert %s: %w", eventType, err))
	}

	m.log.Debug("notifications queued", "tenantId", tenantID, "event", eventType, "count", len(ids))
	return nil
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
