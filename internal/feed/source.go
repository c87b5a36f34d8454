package feed

import (
	"context"
	"time"

	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
)

// CandidateQuery selects open leads for one supplier.
type CandidateQuery struct {
	SupplierID string
	Brands     []string // lower-cased
	Filter     interactions.Filter
	Limit      int
	Offset     int
}

// Candidate is a lead joined with what the feed needs to decorate it.
type Candidate struct {
	Lead               *leads.Lead
	Interaction        *interactions.Record
	UnmaskCount        int
	UnmaskedBySupplier bool
}

// Counts backs the supplier stats panel.
type Counts struct {
	Unmasked           int
	Active             int
	AvgMinutesToUnmask float64
}

// Source loads feed rows, newest first.
type Source interface {
	Candidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)
	Counts(ctx context.Context, supplierID string, now time.Time) (Counts, error)
}
