package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/parto-platform/internal/apperr"
	"github.com/wolfman30/parto-platform/internal/feed"
	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/unmask"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

// SupplierLeadsHandler serves the authenticated supplier surface.
type SupplierLeadsHandler struct {
	feed         *feed.Service
	unmask       *unmask.Service
	interactions *interactions.Service
	logger       *logging.Logger
}

type SupplierLeadsConfig struct {
	Feed         *feed.Service
	Unmask       *unmask.Service
	Interactions *interactions.Service
	Logger       *logging.Logger
}

func NewSupplierLeadsHandler(cfg SupplierLeadsConfig) *SupplierLeadsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &SupplierLeadsHandler{
		feed:         cfg.Feed,
		unmask:       cfg.Unmask,
		interactions: cfg.Interactions,
		logger:       cfg.Logger,
	}
}

// ListLeads handles GET /supplier/leads?filter=ALL|STARRED|IGNORED&page=N
func (h *SupplierLeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := requireSupplier(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := interactions.ParseFilter(q.Get("filter"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	query := feed.Query{Filter: filter, Page: 1}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			apperr.Write(w, apperr.Validation(map[string]string{"page": "page must be a positive integer"}))
			return
		}
		query.Page = page
	}
	if raw := q.Get("pageSize"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			query.PageSize = size
		}
	}

	page, err := h.feed.Feed(r.Context(), supplierID, query)
	if err != nil {
		writeError(w, r, h.logger, "feed", err, "supplier_id", supplierID)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Stats handles GET /supplier/stats
func (h *SupplierLeadsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := requireSupplier(w, r)
	if !ok {
		return
	}
	stats, err := h.feed.Stats(r.Context(), supplierID)
	if err != nil {
		writeError(w, r, h.logger, "stats", err, "supplier_id", supplierID)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type unmaskResponse struct {
	Success         bool      `json:"success"`
	Phone           string    `json:"phone"`
	UnmaskedAt      time.Time `json:"unmaskedAt"`
	AlreadyUnmasked bool      `json:"alreadyUnmasked"`
	SlotsLeft       int       `json:"slotsLeft"`
}

// Unmask handles POST /supplier/leads/{leadID}/unmask
func (h *SupplierLeadsHandler) Unmask(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := requireSupplier(w, r)
	if !ok {
		return
	}
	leadID := chi.URLParam(r, "leadID")
	res, err := h.unmask.Unmask(r.Context(), leadID, supplierID)
	if err != nil {
		writeError(w, r, h.logger, "unmask", err, "lead_id", leadID, "supplier_id", supplierID)
		return
	}
	h.logger.Info("lead unmasked", "lead_id", leadID, "supplier_id", supplierID, "repeat", res.AlreadyUnmasked)
	writeJSON(w, http.StatusOK, unmaskResponse{
		Success:         true,
		Phone:           res.Phone,
		UnmaskedAt:      res.UnmaskedAt,
		AlreadyUnmasked: res.AlreadyUnmasked,
		SlotsLeft:       res.SlotsLeft,
	})
}

// UpdateInteraction handles PATCH /supplier/leads/{leadID}/interaction
func (h *SupplierLeadsHandler) UpdateInteraction(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := requireSupplier(w, r)
	if !ok {
		return
	}
	var flags interactions.Flags
	if err := json.NewDecoder(r.Body).Decode(&flags); err != nil {
		apperr.Write(w, apperr.Validation(map[string]string{"body": "invalid JSON body"}))
		return
	}
	leadID := chi.URLParam(r, "leadID")
	rec, err := h.interactions.SetFlags(r.Context(), leadID, supplierID, flags)
	if err != nil {
		writeError(w, r, h.logger, "set interaction", err, "lead_id", leadID, "supplier_id", supplierID)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ToggleBookmark handles POST /supplier/leads/{leadID}/bookmark
func (h *SupplierLeadsHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := requireSupplier(w, r)
	if !ok {
		return
	}
	leadID := chi.URLParam(r, "leadID")
	starred, err := h.interactions.ToggleBookmark(r.Context(), leadID, supplierID)
	if err != nil {
		writeError(w, r, h.logger, "toggle bookmark", err, "lead_id", leadID, "supplier_id", supplierID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"starred": starred})
}
