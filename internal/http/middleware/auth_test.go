package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/parto-platform/internal/tenancy"
)

func signedToken(t *testing.T, secret, role, sub string) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func serve(mw func(http.Handler) http.Handler, req *http.Request, next http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	if next == nil {
		next = func(http.ResponseWriter, *http.Request) {}
	}
	mw(next).ServeHTTP(rec, req)
	return rec
}

func TestRequireRoleMissingSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/supplier/leads", nil)
	if rec := serve(RequireRole("", tenancy.RoleSupplier), req, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/supplier/leads", nil)
	if rec := serve(RequireRole("secret", tenancy.RoleSupplier), req, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleWrongSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/supplier/leads", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "wrong", "supplier", "sup-1"))
	if rec := serve(RequireRole("secret", tenancy.RoleSupplier), req, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleWrongRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/leads/expire", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "secret", "supplier", "sup-1"))
	if rec := serve(RequireRole("secret", tenancy.RoleAdmin), req, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRoleSetsPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/supplier/leads", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "secret", "supplier", "sup-1"))

	called := false
	rec := serve(RequireRole("secret", tenancy.RoleSupplier), req, func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, ok := tenancy.SupplierIDFromContext(r.Context())
		if !ok || id != "sup-1" {
			t.Fatalf("expected supplier principal, got %q %v", id, ok)
		}
	})
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected handler to run, got %d", rec.Code)
	}
}

func TestRequireRoleQueryTokenOnlyForWebsocket(t *testing.T) {
	token := signedToken(t, "secret", "supplier", "sup-1")

	plain := httptest.NewRequest(http.MethodGet, "/supplier/events?access_token="+token, nil)
	if rec := serve(RequireRole("secret", tenancy.RoleSupplier), plain, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without upgrade, got %d", rec.Code)
	}

	ws := httptest.NewRequest(http.MethodGet, "/supplier/events?access_token="+token, nil)
	ws.Header.Set("Upgrade", "websocket")
	if rec := serve(RequireRole("secret", tenancy.RoleSupplier), ws, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with upgrade, got %d", rec.Code)
	}
}
