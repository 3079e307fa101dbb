// Package rewards keeps the points ledger agents earn from lead progress.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const errLedgerNotConfigured = "reward ledger not configured"

// Entry is one credited amount.
type Entry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Amount    int
	Reason    string
	CreatedAt time.Time
}

// Ledger is an append-only points ledger.
type Ledger struct {
	pool *pgxpool.Pool
	log  *logger.Logger
	now  func() time.Time
}

// New creates a ledger.
func New(pool *pgxpool.Pool, log *logger.Logger) *Ledger {
	return &Ledger{pool: pool, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// AwardPoints appends a credit for userID.
func (l *Ledger) AwardPoints(ctx context.Context, userID uuid.UUID, amount int, reason string) error {
	entry, err := newEntry(userID, amount, reason, l.now())
	if err != nil {
		return err
	}
	if l == nil || l.pool == nil {
		return errors.New(errLedgerNotConfigured)
	}

	_, err = l.pool.Exec(ctx,
		`INSERT INTO reward_points (id, user_id, amount, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.UserID, entry.Amount, entry.Reason, entry.CreatedAt,
	)
	if err != nil {
		return apperr.Unavailable("reward ledger unavailable", fmt.Errorf("award %d points: %w", amount, err))
	}
	l.log.Info("reward points awarded", "userId", userID, "amount", amount, "reason", entry.Reason)
	return nil
}

// Balance sums every credit for userID.
func (l *Ledger) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	if l == nil || l.pool == nil {
		return 0, errors.New(errLedgerNotConfigured)
	}
	var total int
	err := l.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM reward_points WHERE user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("reward balance: %w", err)
	}
	return total, nil
}

func newEntry(userID uuid.UUID, amount int, reason string, at time.Time) (Entry, error) {
	if userID == uuid.Nil {
		return Entry{}, apperr.Validation("reward user is required")
	}
	if amount <= 0 {
		return Entry{}, apperr.Validation("reward amount must be positive")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Entry{}, apperr.Validation("reward reason is required")
	}
	return Entry{ID: uuid.New(), UserID: userID, Amount: amount, Reason: reason, CreatedAt: at}, nil
}
