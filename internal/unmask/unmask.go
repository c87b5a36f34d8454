// Package unmask reveals a buyer's phone number to a supplier, at most once
// per pair and for a bounded number of suppliers per lead.
package unmask

import (
	"context"
	"time"

	"github.com/wolfman30/parto-platform/internal/apperr"
	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
)

var ErrLeadExpired = apperr.New(apperr.KindExpired, "LEAD_EXPIRED", "this request has expired")

// View records that a supplier saw the buyer's number.
type View struct {
	LeadID     string    `json:"lead_id"`
	SupplierID string    `json:"supplier_id"`
	UnmaskedAt time.Time `json:"unmasked_at"`
}

// Result is returned to the supplier. Repeating an unmask returns the
// first UnmaskedAt with AlreadyUnmasked set.
type Result struct {
	LeadID          string    `json:"leadId"`
	Phone           string    `json:"phone"`
	UnmaskedAt      time.Time `json:"unmaskedAt"`
	AlreadyUnmasked bool      `json:"alreadyUnmasked"`
	SlotsLeft       int       `json:"slotsLeft"`
}

// Tx is one unit of work. LockLead must be called first; it serialises every
// other unmask of the same lead until the unit of work ends.
type Tx interface {
	LockLead(ctx context.Context, leadID string) (*leads.Lead, error)
	FindView(ctx context.Context, leadID, supplierID string) (*View, error)
	CountViews(ctx context.Context, leadID string) (int, error)
	InsertView(ctx context.Context, v View) error
	Activate(ctx context.Context, leadID string, at time.Time) error
	Interaction(ctx context.Context, leadID, supplierID string) (*interactions.Record, error)
	AppendEvent(ctx context.Context, evt events.Event) error
}

// Store runs fn atomically: all writes made through tx are applied only if fn
// returns nil.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
