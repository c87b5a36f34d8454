package leads

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/parto-platform/internal/apperr"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

type createLeadResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// CreateLead handles POST /api/leads requests
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation(map[string]string{"body": "invalid JSON body"}))
		return
	}

	lead, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "create lead", "", err)
		return
	}

	h.logger.Info("lead created", "lead_id", lead.ID, "make", lead.VehicleMake, "region", lead.LocationText)
	writeJSON(w, http.StatusCreated, createLeadResponse{Success: true, ID: lead.ID})
}

type expireResponse struct {
	Expired []string `json:"expired"`
	Count   int      `json:"count"`
}

// ExpireNow handles POST /admin/leads/expire
func (h *Handler) ExpireNow(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.ExpireOverdue(r.Context())
	if err != nil {
		h.fail(w, r, "expire leads", "", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, expireResponse{Expired: ids, Count: len(ids)})
}

// Fulfill handles POST /admin/leads/{leadID}/fulfill
func (h *Handler) Fulfill(w http.ResponseWriter, r *http.Request) {
	h.terminal(w, r, h.svc.MarkFulfilled)
}

// Drop handles POST /admin/leads/{leadID}/drop
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	h.terminal(w, r, h.svc.Drop)
}

func (h *Handler) terminal(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string) error) {
	leadID := chi.URLParam(r, "leadID")
	if err := apply(r.Context(), leadID); err != nil {
		h.fail(w, r, "transition lead", leadID, err)
		return
	}
	lead, err := h.svc.Get(r.Context(), leadID)
	if err != nil {
		h.fail(w, r, "load lead", leadID, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op, leadID string, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		h.logger.Error("lead request failed", "error", err, "op", op, "lead_id", leadID, "path", r.URL.Path)
	}
	apperr.Write(w, err)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
