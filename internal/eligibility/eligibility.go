// Package eligibility decides whether a supplier may take a lead. It does no
// I/O so the unmask transaction can re-run it on freshly locked state.
package eligibility

import (
	"github.com/wolfman30/parto-platform/internal/apperr"
	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/suppliers"
)

// DefaultMaxSuppliersPerLead caps how many suppliers may reveal one buyer.
const DefaultMaxSuppliersPerLead = 5

var (
	ErrNotEligible     = apperr.New(apperr.KindForbidden, "SUPPLIER_NOT_ELIGIBLE", "you are not eligible for this request")
	ErrCapacityReached = apperr.New(apperr.KindCapacityExceeded, "LEAD_CAPACITY_REACHED", "this lead already has enough responses")
)

// IsEligible: active supplier, brand match, and the lead is not ignored by
// this supplier.
func IsEligible(lead *leads.Lead, supplier *suppliers.Supplier, rec *interactions.Record) bool {
	if lead == nil || supplier == nil || !supplier.IsActive {
		return false
	}
	if !supplier.HandlesBrand(lead.VehicleMake) {
		return false
	}
	return rec == nil || !rec.IsIgnored
}

func HasCapacity(unmaskCount, limit int) bool {
	return unmaskCount < limit
}

// SlotsLeft never goes negative.
func SlotsLeft(unmaskCount, limit int) int {
	if unmaskCount >= limit {
		return 0
	}
	return limit - unmaskCount
}

// Check evaluates eligibility before capacity.
func Check(lead *leads.Lead, supplier *suppliers.Supplier, rec *interactions.Record, unmaskCount, limit int) error {
	if !IsEligible(lead, supplier, rec) {
		return ErrNotEligible
	}
	if !HasCapacity(unmaskCount, limit) {
		return ErrCapacityReached
	}
	return nil
}
