package tenancy

import "context"

// Role is the identity provider's role claim.
type Role string

const (
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// Principal is the authenticated subject behind a request.
type Principal struct {
	SubjectID string
	Role      Role
}

type ctxKey string

const principalKey ctxKey = "parto.principal"

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the principal if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.SubjectID != ""
}

// SupplierIDFromContext returns the subject id when the caller is a supplier.
func SupplierIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.Role != RoleSupplier {
		return "", false
	}
	return p.SubjectID, true
}
