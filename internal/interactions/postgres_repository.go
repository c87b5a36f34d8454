package interactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/suppliers"
)

const (
	leadForeignKey     = "lead_interactions_lead_id_fkey"
	supplierForeignKey = "lead_interactions_supplier_id_fkey"
)

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository keeps the ledger in lead_interactions. Every write is a
// single upsert so concurrent writers resolve last-write-wins.
type PostgresRepository struct {
	db queryer
}

func NewPostgresRepository(db queryer) *PostgresRepository {
	if db == nil {
		panic("interactions: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const recordColumns = `lead_id::text, supplier_id::text, has_interacted, is_starred, is_ignored, first_interacted_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(
		&rec.LeadID,
		&rec.SupplierID,
		&rec.HasInteracted,
		&rec.IsStarred,
		&rec.IsIgnored,
		&rec.FirstInteractedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, leadID, supplierID string, flags Flags, at time.Time) (*Record, error) {
	query := `
		INSERT INTO lead_interactions AS li
			(lead_id, supplier_id, has_interacted, is_starred, is_ignored, first_interacted_at, updated_at)
		VALUES ($1, $2,
			COALESCE($3::boolean, false),
			COALESCE($4::boolean, false),
			COALESCE($5::boolean, false),
			CASE WHEN $3::boolean THEN $6::timestamptz END,
			$6)
		ON CONFLICT (lead_id, supplier_id) DO UPDATE SET
			has_interacted = COALESCE($3::boolean, li.has_interacted),
			is_starred = COALESCE($4::boolean, li.is_starred),
			is_ignored = COALESCE($5::boolean, li.is_ignored),
			first_interacted_at = COALESCE(li.first_interacted_at, CASE WHEN $3::boolean THEN $6::timestamptz END),
			updated_at = $6
		RETURNING ` + recordColumns
	rec, err := scanRecord(r.db.QueryRow(ctx, query, leadID, supplierID, flags.HasInteracted, flags.IsStarred, flags.IsIgnored, at.UTC()))
	if err != nil {
		return nil, mapWriteError("upsert", leadID, err)
	}
	return rec, nil
}

func (r *PostgresRepository) ToggleStar(ctx context.Context, leadID, supplierID string, at time.Time) (*Record, error) {
	query := `
		INSERT INTO lead_interactions AS li (lead_id, supplier_id, is_starred, updated_at)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (lead_id, supplier_id) DO UPDATE SET
			is_starred = NOT li.is_starred,
			updated_at = $3
		RETURNING ` + recordColumns
	rec, err := scanRecord(r.db.QueryRow(ctx, query, leadID, supplierID, at.UTC()))
	if err != nil {
		return nil, mapWriteError("toggle star", leadID, err)
	}
	return rec, nil
}

func (r *PostgresRepository) Get(ctx context.Context, leadID, supplierID string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM lead_interactions WHERE lead_id = $1 AND supplier_id = $2`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, leadID, supplierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("interactions: get: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) ListBySupplier(ctx context.Context, supplierID string) (map[string]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM lead_interactions WHERE supplier_id = $1`
	rows, err := r.db.Query(ctx, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("interactions: list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*Record)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("interactions: scan: %w", err)
		}
		out[rec.LeadID] = rec
	}
	return out, rows.Err()
}

// mapWriteError turns foreign key violations into the matching not-found
// error. Any other violation stays internal.
func mapWriteError(op, leadID string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		switch pgErr.ConstraintName {
		case leadForeignKey:
			return leads.ErrLeadNotFound
		case supplierForeignKey:
			return suppliers.ErrSupplierNotFound
		}
	}
	return fmt.Errorf("interactions: %s %s: %w", op, leadID, err)
}
