// Package suppliers reads the approved supplier directory. Approval and brand
// assignment happen in the admin tool; the engine only reads.
package suppliers

import (
	"context"
	"strings"

	"github.com/wolfman30/parto-platform/internal/apperr"
)

var (
	ErrSupplierNotFound = apperr.New(apperr.KindNotFound, "SUPPLIER_NOT_FOUND", "supplier not found")
	ErrSupplierInactive = apperr.New(apperr.KindForbidden, "SUPPLIER_INACTIVE", "supplier account is not active")
)

// Supplier is an approved parts vendor.
type Supplier struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	IsActive       bool     `json:"is_active"`
	Brands         []string `json:"brands"`
	WhatsAppNumber string   `json:"whatsapp_number,omitempty"`
}

// HandlesBrand reports whether brand is one of the supplier's brands,
// ignoring case and surrounding space.
func (s *Supplier) HandlesBrand(brand string) bool {
	want := strings.TrimSpace(brand)
	for _, b := range s.Brands {
		if strings.EqualFold(strings.TrimSpace(b), want) {
			return true
		}
	}
	return false
}

// NormalizedBrands returns the brand list lower-cased for query filters.
func (s *Supplier) NormalizedBrands() []string {
	out := make([]string, 0, len(s.Brands))
	for _, b := range s.Brands {
		if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Directory looks up suppliers.
type Directory interface {
	Get(ctx context.Context, id string) (*Supplier, error)
}

// RequireActive loads the supplier and rejects inactive accounts. Activation
// is read at call time, never cached in a session.
func RequireActive(ctx context.Context, dir Directory, id string) (*Supplier, error) {
	s, err := dir.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, ErrSupplierInactive
	}
	return s, nil
}
