package apperr

import (
	"encoding/json"
	"net/http"
)

// Body is the JSON error envelope returned to clients.
type Body struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// BodyFor renders err without leaking internal state.
func BodyFor(err error) (int, Body) {
	e, ok := As(err)
	if !ok || e.Kind == KindInternal {
		generic := Internal(nil)
		return http.StatusInternalServerError, Body{Error: generic.Code, Message: generic.Message}
	}
	return Status(e.Kind), Body{Error: e.Code, Message: e.Message, Details: e.Details}
}

// Write encodes err as the JSON error envelope.
func Write(w http.ResponseWriter, err error) {
	status, body := BodyFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
