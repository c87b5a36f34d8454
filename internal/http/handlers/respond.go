package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/parto-platform/internal/apperr"
	"github.com/wolfman30/parto-platform/internal/tenancy"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError logs internal failures with request context and writes the
// user-safe body.
func writeError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, op string, err error, args ...any) {
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.Error("request failed", append([]any{"error", err, "op", op, "path", r.URL.Path}, args...)...)
	}
	apperr.Write(w, err)
}

func requireSupplier(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := tenancy.SupplierIDFromContext(r.Context())
	if !ok {
		http.Error(w, "supplier identity required", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}
