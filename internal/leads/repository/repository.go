package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrConflict means the lead's status no longer matches the one the
	// write was computed from.
	ErrConflict = errors.New("lead status changed concurrently")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, organization_id, branch_id, assigned_to, created_by, source,
	status, temperature, priority, lifecycle_stage,
	company_size, industry, contact_role, budget_amount, purchase_timeline_days, product_interest,
	qualification, content_engagement,
	lead_score, scoring_data, score_history, change_history,
	last_contact_date, next_follow_up_date, total_interactions, timed_responses, average_response_time, days_since_last_response,
	created_at, updated_at, deleted_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(
		&lead.ID, &lead.OrganizationID, &lead.BranchID, &lead.AssignedTo, &lead.CreatedBy, &lead.Source,
		&lead.Status, &lead.Temperature, &lead.Priority, &lead.LifecycleStage,
		&lead.CompanySize, &lead.Industry, &lead.ContactRole, &lead.BudgetAmount, &lead.PurchaseTimelineDays, &lead.ProductInterest,
		&lead.Qualification, &lead.ContentEngagement,
		&lead.LeadScore, &lead.ScoringData, &lead.ScoreHistory, &lead.ChangeHistory,
		&lead.LastContactDate, &lead.NextFollowUpDate, &lead.TotalInteractions, &lead.TimedResponses, &lead.AverageResponseTime, &lead.DaysSinceLastResponse,
		&lead.CreatedAt, &lead.UpdatedAt, &lead.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (domain.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, tenantID))
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	where := []string{"organization_id = $1", "deleted_at IS NULL"}
	args := []any{params.TenantID}

	if params.Status != nil {
		args = append(args, *params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Temperature != nil {
		args = append(args, *params.Temperature)
		where = append(where, fmt.Sprintf("temperature = $%d", len(args)))
	}
	if params.AssignedTo != nil {
		args = append(args, *params.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, max(params.Offset, 0))
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) ListActivePage(ctx context.Context, filter PageFilter) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE deleted_at IS NULL
			AND status NOT IN ('CONVERTED', 'DECLINED', 'CANCELLED')
			AND ($1::uuid IS NULL OR organization_id = $1)
			AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`, filter.TenantID, filter.AfterID, filter.Limit)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

// ListActiveTenants returns every organization with at least one lead the
// batch job would process.
func (r *Repository) ListActiveTenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT organization_id
		FROM leads
		WHERE deleted_at IS NULL
			AND status NOT IN ('CONVERTED', 'DECLINED', 'CANCELLED')
		ORDER BY organization_id
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	productInterest := params.ProductInterest
	if productInterest == nil {
		productInterest = []string{}
	}
	changeHistory := params.ChangeHistory
	if changeHistory == nil {
		changeHistory = []domain.ChangeHistoryEntry{}
	}

	return scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			organization_id, branch_id, assigned_to, created_by, source,
			status, temperature, priority, lifecycle_stage,
			company_size, industry, contact_role, budget_amount, purchase_timeline_days, product_interest,
			qualification, content_engagement, next_follow_up_date, change_history
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::jsonb, $17::jsonb, $18, $19::jsonb)
		RETURNING `+leadColumns,
		params.OrganizationID, params.BranchID, params.AssignedTo, params.CreatedBy, params.Source,
		params.Status, params.Temperature, params.Priority, params.LifecycleStage,
		params.CompanySize, params.Industry, params.ContactRole, params.BudgetAmount, params.PurchaseTimelineDays, productInterest,
		params.Qualification, params.ContentEngagement, params.NextFollowUpDate, changeHistory,
	))
}

// UpdateFields applies a partial user update and moves updated_at.
func (r *Repository) UpdateFields(ctx context.Context, tenantID uuid.UUID, id int64, params UpdateLeadParams) (domain.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			branch_id = COALESCE($3, branch_id),
			assigned_to = COALESCE($4, assigned_to),
			priority = COALESCE($5, priority),
			company_size = COALESCE($6, company_size),
			industry = COALESCE($7, industry),
			contact_role = COALESCE($8, contact_role),
			budget_amount = COALESCE($9, budget_amount),
			purchase_timeline_days = COALESCE($10, purchase_timeline_days),
			product_interest = COALESCE($11, product_interest),
			qualification = COALESCE($12::jsonb, qualification),
			content_engagement = COALESCE($13::jsonb, content_engagement),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING `+leadColumns,
		id, tenantID,
		params.BranchID, params.AssignedTo, params.Priority, params.CompanySize, params.Industry, params.ContactRole,
		params.BudgetAmount, params.PurchaseTimelineDays, params.ProductInterest, params.Qualification, params.ContentEngagement,
	))
}

// UpdateStatus sets status from entry.NewStatus and appends entry in the same
// statement. The row must still hold entry.OldStatus, otherwise ErrConflict.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID uuid.UUID, id int64, entry domain.ChangeHistoryEntry) error {
	tag, err := r.pool.Exec(ctx, updateStatusSQL, statusArgs(tenantID, id, entry)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return missReason(ctx, r.pool, tenantID, id)
	}
	return nil
}

const updateStatusSQL = `
	UPDATE leads SET
		status = $3,
		lifecycle_stage = $4,
		change_history = change_history || $5::jsonb,
		updated_at = $6
	WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL AND status = $7`

func statusArgs(tenantID uuid.UUID, id int64, entry domain.ChangeHistoryEntry) []any {
	return []any{
		id, tenantID, entry.NewStatus, domain.LifecycleStageFor(entry.NewStatus),
		[]domain.ChangeHistoryEntry{entry}, entry.Timestamp, entry.OldStatus,
	}
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// missReason tells a missing or deleted lead apart from one whose status moved.
func missReason(ctx context.Context, q rowQuerier, tenantID uuid.UUID, id int64) error {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL)
	`, id, tenantID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// SaveEvaluation writes one pipeline pass in a single transaction: the
// optional status change, the derived fields and the score history entry.
// Every statement requires the lead to be live and in the status the pass
// was computed from. Nothing is written when any step fails.
// updated_at only moves with a status change: it anchors time-in-status.
func (r *Repository) SaveEvaluation(ctx context.Context, tenantID uuid.UUID, id int64, ev Evaluation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status := ev.PriorStatus
	if ev.StatusChange != nil {
		if ev.StatusChange.OldStatus != ev.PriorStatus {
			return ErrConflict
		}
		tag, err := tx.Exec(ctx, updateStatusSQL, statusArgs(tenantID, id, *ev.StatusChange)...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return missReason(ctx, tx, tenantID, id)
		}
		status = ev.StatusChange.NewStatus
	}

	d := ev.Derived
	tag, err := tx.Exec(ctx, `
		UPDATE leads SET
			lead_score = $3,
			scoring_data = $4::jsonb,
			temperature = $5,
			next_follow_up_date = COALESCE($6, next_follow_up_date),
			days_since_last_response = $7,
			score_history = score_history || $8::jsonb
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL AND status = $9
	`, id, tenantID, d.LeadScore, d.ScoringData, d.Temperature, d.NextFollowUpDate, d.DaysSinceLastResponse,
		[]domain.ScoreHistoryEntry{ev.ScoreEntry}, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return missReason(ctx, tx, tenantID, id)
	}
	return tx.Commit(ctx)
}

// RecordInteraction stores an interaction and rolls it into the lead's
// activity aggregates in one transaction.
func (r *Repository) RecordInteraction(ctx context.Context, params RecordInteractionParams) (domain.Interaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Interaction{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var it domain.Interaction
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_interactions (lead_id, organization_id, kind, direction, response_hours, occurred_at, actor_id)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE EXISTS (SELECT 1 FROM leads WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL)
		RETURNING id, lead_id, organization_id, kind, direction, response_hours, occurred_at, actor_id
	`, params.LeadID, params.OrganizationID, params.Kind, params.Direction, params.ResponseHours, params.OccurredAt, params.ActorID).Scan(
		&it.ID, &it.LeadID, &it.OrganizationID, &it.Kind, &it.Direction, &it.ResponseHours, &it.OccurredAt, &it.ActorID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Interaction{}, ErrNotFound
	}
	if err != nil {
		return domain.Interaction{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE leads SET
			last_contact_date = GREATEST(COALESCE(last_contact_date, $3), $3),
			total_interactions = total_interactions + 1,
			average_response_time = CASE
				WHEN $4::double precision IS NULL THEN average_response_time
				ELSE (average_response_time * timed_responses + $4) / (timed_responses + 1)
			END,
			timed_responses = CASE WHEN $4::double precision IS NULL THEN timed_responses ELSE timed_responses + 1 END,
			days_since_last_response = CASE WHEN $5 = 'inbound' THEN 0 ELSE days_since_last_response END
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, params.LeadID, params.OrganizationID, params.OccurredAt, params.ResponseHours, params.Direction)
	if err != nil {
		return domain.Interaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Interaction{}, err
	}
	return it, nil
}

func (r *Repository) ListInteractionsSince(ctx context.Context, tenantID uuid.UUID, leadID int64, since time.Time) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, organization_id, kind, direction, response_hours, occurred_at, actor_id
		FROM lead_interactions
		WHERE lead_id = $1 AND organization_id = $2 AND occurred_at >= $3
		ORDER BY occurred_at DESC
	`, leadID, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Interaction, 0)
	for rows.Next() {
		var it domain.Interaction
		if err := rows.Scan(&it.ID, &it.LeadID, &it.OrganizationID, &it.Kind, &it.Direction, &it.ResponseHours, &it.OccurredAt, &it.ActorID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
