package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
)

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSource builds each page with a single query.
type PostgresSource struct {
	db queryer
}

func NewPostgresSource(db queryer) *PostgresSource {
	if db == nil {
		panic("feed: pgx pool required")
	}
	return &PostgresSource{db: db}
}

func filterClause(f interactions.Filter) string {
	switch f {
	case interactions.FilterStarred:
		return `COALESCE(li.is_starred, false) AND NOT COALESCE(li.is_ignored, false)`
	case interactions.FilterIgnored:
		return `COALESCE(li.is_ignored, false)`
	default:
		return `NOT COALESCE(li.is_ignored, false)`
	}
}

func (s *PostgresSource) Candidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	query := `
		SELECT ` + leads.LeadColumns + `,
			li.lead_id IS NOT NULL,
			COALESCE(li.has_interacted, false),
			COALESCE(li.is_starred, false),
			COALESCE(li.is_ignored, false),
			li.first_interacted_at,
			(SELECT count(*) FROM lead_views v WHERE v.lead_id = l.id),
			EXISTS (SELECT 1 FROM lead_views v WHERE v.lead_id = l.id AND v.supplier_id = $1)
		FROM leads l
		JOIN buyers b ON b.id = l.buyer_id
		LEFT JOIN lead_interactions li ON li.lead_id = l.id AND li.supplier_id = $1
		WHERE l.state IN ('NEW', 'ACTIVE')
			AND lower(l.vehicle_make) = ANY($2)
			AND ` + filterClause(q.Filter) + `
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := s.db.Query(ctx, query, q.SupplierID, q.Brands, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("feed: query candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			hasRecord bool
			rec       interactions.Record
			c         Candidate
		)
		lead, err := leads.ScanLead(rows,
			&hasRecord,
			&rec.HasInteracted,
			&rec.IsStarred,
			&rec.IsIgnored,
			&rec.FirstInteractedAt,
			&c.UnmaskCount,
			&c.UnmaskedBySupplier,
		)
		if err != nil {
			return nil, fmt.Errorf("feed: scan candidate: %w", err)
		}
		c.Lead = lead
		if hasRecord {
			rec.LeadID, rec.SupplierID = lead.ID, q.SupplierID
			c.Interaction = &rec
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresSource) Counts(ctx context.Context, supplierID string, _ time.Time) (Counts, error) {
	query := `
		SELECT
			(SELECT count(*) FROM lead_views WHERE supplier_id = $1),
			(SELECT count(*) FROM leads WHERE state = 'ACTIVE'),
			COALESCE((
				SELECT avg(EXTRACT(EPOCH FROM (v.unmasked_at - l.created_at)) / 60)::float8
				FROM lead_views v
				JOIN leads l ON l.id = v.lead_id
				WHERE v.supplier_id = $1
			), 0)
	`
	var c Counts
	if err := s.db.QueryRow(ctx, query, supplierID).Scan(&c.Unmasked, &c.Active, &c.AvgMinutesToUnmask); err != nil {
		return Counts{}, fmt.Errorf("feed: stats: %w", err)
	}
	return c, nil
}
