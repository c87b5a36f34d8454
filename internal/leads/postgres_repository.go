package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxDB is satisfied by *pgxpool.Pool and pgxmock pools.
type pgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LeadColumns selects a lead joined with its buyer (alias l and b) in the
// order ScanLead expects.
const LeadColumns = `l.id::text, l.buyer_id::text, b.phone_number, l.vehicle_make, l.vehicle_model,
	l.vehicle_year, l.requested_parts, l.condition, l.location_text, l.state,
	l.created_at, l.sla_deadline, l.first_engagement_at`

// ScanLead reads a row produced by LeadColumns. Extra destinations are
// scanned after the lead columns.
func ScanLead(row pgx.Row, extra ...any) (*Lead, error) {
	var (
		lead      Lead
		condition string
		state     string
		engaged   *time.Time
	)
	dest := []any{
		&lead.ID,
		&lead.BuyerID,
		&lead.BuyerPhone,
		&lead.VehicleMake,
		&lead.VehicleModel,
		&lead.VehicleYear,
		&lead.RequestedParts,
		&condition,
		&lead.LocationText,
		&state,
		&lead.CreatedAt,
		&lead.SLADeadline,
		&engaged,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	lead.Condition = Condition(condition)
	lead.State = State(state)
	lead.FirstEngagementAt = engaged
	return &lead, nil
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db pgxDB) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create upserts the buyer and inserts the lead in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("leads: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	upsertBuyer := `
		INSERT INTO buyers (id, phone_number, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number) DO UPDATE SET phone_number = EXCLUDED.phone_number
		RETURNING id::text
	`
	if err := tx.QueryRow(ctx, upsertBuyer, uuid.New(), lead.BuyerPhone, lead.CreatedAt).Scan(&lead.BuyerID); err != nil {
		return fmt.Errorf("leads: upsert buyer: %w", err)
	}

	insertLead := `
		INSERT INTO leads (id, buyer_id, vehicle_make, vehicle_model, vehicle_year,
			requested_parts, condition, location_text, state, created_at, sla_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.Exec(ctx, insertLead,
		lead.ID,
		lead.BuyerID,
		lead.VehicleMake,
		lead.VehicleModel,
		lead.VehicleYear,
		lead.RequestedParts,
		string(lead.Condition),
		lead.LocationText,
		string(lead.State),
		lead.CreatedAt,
		lead.SLADeadline,
	); err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("leads: commit: %w", err)
	}
	return nil
}

// GetByID fetches a lead with its buyer phone.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + LeadColumns + `
		FROM leads l
		JOIN buyers b ON b.id = l.buyer_id
		WHERE l.id = $1
	`
	lead, err := ScanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: get %s: %w", id, err)
	}
	return lead, nil
}

// Transition locks the lead row, checks the rule and updates it.
func (r *PostgresRepository) Transition(ctx context.Context, id string, to State, at time.Time) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrLeadNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("leads: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	if err := tx.QueryRow(ctx, `SELECT state FROM leads WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrLeadNotFound
		}
		return false, fmt.Errorf("leads: lock %s: %w", id, err)
	}
	from := State(current)
	if !CanTransition(from, to) {
		return false, fmt.Errorf("leads: %s to %s: %w", from, to, ErrInvalidTransition)
	}
	if from == to {
		return false, nil
	}

	if err := UpdateState(ctx, tx, id, to, at); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("leads: commit: %w", err)
	}
	return true, nil
}

// Execer is the slice of pgx.Tx used by UpdateState.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UpdateState writes a state change on an already locked row. Entering
// ACTIVE stamps first_engagement_at only while it is NULL.
func UpdateState(ctx context.Context, q Execer, id string, to State, at time.Time) error {
	query := `
		UPDATE leads
		SET state = $2,
			first_engagement_at = CASE WHEN $2 = 'ACTIVE' THEN COALESCE(first_engagement_at, $3) ELSE first_engagement_at END,
			updated_at = $3
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query, id, string(to), at.UTC()); err != nil {
		return fmt.Errorf("leads: update state %s: %w", id, err)
	}
	return nil
}

// ExpireOverdue is a single conditional update, safe to run at any cadence.
func (r *PostgresRepository) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE leads
		SET state = 'SLA_BREACH', updated_at = $1
		WHERE state IN ('NEW', 'ACTIVE') AND sla_deadline < $1
		RETURNING id::text
	`
	rows, err := r.db.Query(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("leads: expire overdue: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("leads: scan expired id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
