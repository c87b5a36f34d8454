package unmask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore runs each unmask in a pgx transaction holding a row lock on
// the lead. The lead.unmasked event is queued in the outbox inside the same
// transaction.
type PostgresStore struct {
	db     txBeginner
	outbox *events.OutboxStore
}

func NewPostgresStore(db txBeginner, outbox *events.OutboxStore) *PostgresStore {
	if db == nil || outbox == nil {
		panic("unmask: pgx pool and outbox required")
	}
	return &PostgresStore{db: db, outbox: outbox}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unmask: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx, outbox: s.outbox}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("unmask: commit: %w", err)
	}
	return nil
}

type pgTx struct {
	tx     pgx.Tx
	outbox *events.OutboxStore
}

func (t *pgTx) LockLead(ctx context.Context, leadID string) (*leads.Lead, error) {
	if _, err := uuid.Parse(leadID); err != nil {
		return nil, leads.ErrLeadNotFound
	}
	query := `SELECT ` + leads.LeadColumns + `
		FROM leads l
		JOIN buyers b ON b.id = l.buyer_id
		WHERE l.id = $1
		FOR UPDATE OF l
	`
	lead, err := leads.ScanLead(t.tx.QueryRow(ctx, query, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, leads.ErrLeadNotFound
		}
		return nil, fmt.Errorf("unmask: lock lead: %w", err)
	}
	return lead, nil
}

func (t *pgTx) FindView(ctx context.Context, leadID, supplierID string) (*View, error) {
	var at time.Time
	err := t.tx.QueryRow(ctx,
		`SELECT unmasked_at FROM lead_views WHERE lead_id = $1 AND supplier_id = $2`,
		leadID, supplierID,
	).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unmask: find view: %w", err)
	}
	return &View{LeadID: leadID, SupplierID: supplierID, UnmaskedAt: at}, nil
}

func (t *pgTx) CountViews(ctx context.Context, leadID string) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, `SELECT count(*) FROM lead_views WHERE lead_id = $1`, leadID).Scan(&n); err != nil {
		return 0, fmt.Errorf("unmask: count views: %w", err)
	}
	return n, nil
}

func (t *pgTx) InsertView(ctx context.Context, v View) error {
	query := `
		INSERT INTO lead_views (lead_id, supplier_id, unmasked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (lead_id, supplier_id) DO NOTHING
	`
	if _, err := t.tx.Exec(ctx, query, v.LeadID, v.SupplierID, v.UnmaskedAt); err != nil {
		return fmt.Errorf("unmask: insert view: %w", err)
	}
	return nil
}

func (t *pgTx) Activate(ctx context.Context, leadID string, at time.Time) error {
	return leads.UpdateState(ctx, t.tx, leadID, leads.StateActive, at)
}

func (t *pgTx) Interaction(ctx context.Context, leadID, supplierID string) (*interactions.Record, error) {
	return interactions.NewPostgresRepository(t.tx).Get(ctx, leadID, supplierID)
}

func (t *pgTx) AppendEvent(ctx context.Context, evt events.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}
