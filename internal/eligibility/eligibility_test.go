package eligibility

import (
	"errors"
	"testing"

	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/suppliers"
)

func TestCheck(t *testing.T) {
	lead := &leads.Lead{VehicleMake: "Maruti"}
	active := &suppliers.Supplier{IsActive: true, Brands: []string{"maruti"}}

	tests := []struct {
		name     string
		supplier *suppliers.Supplier
		rec      *interactions.Record
		count    int
		want     error
	}{
		{"eligible with room", active, nil, 4, nil},
		{"cap reached", active, nil, 5, ErrCapacityReached},
		{"inactive", &suppliers.Supplier{IsActive: false, Brands: []string{"Maruti"}}, nil, 0, ErrNotEligible},
		{"wrong brand", &suppliers.Supplier{IsActive: true, Brands: []string{"Tata"}}, nil, 0, ErrNotEligible},
		{"ignored", active, &interactions.Record{IsIgnored: true}, 0, ErrNotEligible},
		{"starred only", active, &interactions.Record{IsStarred: true}, 0, nil},
		{"ineligible beats capacity", &suppliers.Supplier{IsActive: false}, nil, 9, ErrNotEligible},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(lead, tc.supplier, tc.rec, tc.count, DefaultMaxSuppliersPerLead)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Check() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSlotsLeft(t *testing.T) {
	if got := SlotsLeft(2, 5); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := SlotsLeft(7, 5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
