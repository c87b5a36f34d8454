package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"listed", []string{"https://parto.in"}, "https://parto.in", "https://parto.in"},
		{"listed with trailing slash", []string{"https://suppliers.parto.in/"}, "https://suppliers.parto.in", "https://suppliers.parto.in"},
		{"unknown", []string{"https://parto.in"}, "https://evil.example", ""},
		{"wildcard", []string{"*"}, "https://random.example", "https://random.example"},
		{"no origin", []string{"*"}, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tc.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Fatalf("allow origin = %q, want %q", got, tc.want)
			}
			if tc.want != "" && rec.Header().Get("Access-Control-Expose-Headers") == "" {
				t.Fatalf("expected exposed headers")
			}
		})
	}
}

func TestCORSHandlesPreflight(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodOptions, "/supplier/leads/abc/interaction", nil)
	req.Header.Set("Origin", "https://parto.in")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()

	CORS([]string{"https://parto.in"})(handler).ServeHTTP(rec, req)

	if called {
		t.Fatalf("expected handler to not be called on preflight")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}
