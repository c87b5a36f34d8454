// Package interactions is the per-supplier ledger of engagement, bookmark
// and ignore flags on leads. It never consumes lead capacity.
package interactions

import (
	"strings"
	"time"

	"github.com/wolfman30/parto-platform/internal/apperr"
)

// Filter selects which leads a supplier sees.
type Filter string

const (
	FilterAll     Filter = "ALL"
	FilterStarred Filter = "STARRED"
	FilterIgnored Filter = "IGNORED"
)

var ErrInvalidFilter = apperr.New(apperr.KindValidation, "INVALID_FILTER", "filter must be ALL, STARRED or IGNORED")

// ParseFilter defaults to ALL on empty input.
func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterStarred, FilterIgnored:
		return f, nil
	}
	return "", ErrInvalidFilter
}

// Matches applies the filter to a supplier's record for one lead. A nil
// record means the supplier never touched the lead.
func (f Filter) Matches(rec *Record) bool {
	starred, ignored := false, false
	if rec != nil {
		starred, ignored = rec.IsStarred, rec.IsIgnored
	}
	switch f {
	case FilterStarred:
		return starred && !ignored
	case FilterIgnored:
		return ignored
	default:
		return !ignored
	}
}

// Record is one supplier's flags on one lead.
type Record struct {
	LeadID            string     `json:"lead_id"`
	SupplierID        string     `json:"supplier_id"`
	HasInteracted     bool       `json:"has_interacted"`
	IsStarred         bool       `json:"is_starred"`
	IsIgnored         bool       `json:"is_ignored"`
	FirstInteractedAt *time.Time `json:"first_interacted_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Flags is a partial update; nil fields are left as they are.
type Flags struct {
	HasInteracted *bool `json:"hasInteracted,omitempty"`
	IsStarred     *bool `json:"isStarred,omitempty"`
	IsIgnored     *bool `json:"isIgnored,omitempty"`
}

func (f Flags) Empty() bool {
	return f.HasInteracted == nil && f.IsStarred == nil && f.IsIgnored == nil
}

// apply merges f into rec. firstInteractedAt is stamped only once.
func (f Flags) apply(rec *Record, at time.Time) {
	if f.HasInteracted != nil {
		rec.HasInteracted = *f.HasInteracted
		if rec.HasInteracted && rec.FirstInteractedAt == nil {
			t := at
			rec.FirstInteractedAt = &t
		}
	}
	if f.IsStarred != nil {
		rec.IsStarred = *f.IsStarred
	}
	if f.IsIgnored != nil {
		rec.IsIgnored = *f.IsIgnored
	}
	rec.UpdatedAt = at
}

func (r *Record) clone() *Record {
	cp := *r
	if r.FirstInteractedAt != nil {
		t := *r.FirstInteractedAt
		cp.FirstInteractedAt = &t
	}
	return &cp
}
