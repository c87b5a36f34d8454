package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/parto-platform/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/parto-platform/internal/http/middleware"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/tenancy"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	SupplierLeads      *handlers.SupplierLeadsHandler
	SupplierEvents     *handlers.SupplierEventsHandler
	AuthSecret         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// IntakeLimiter throttles public lead submissions per client IP (optional).
	IntakeLimiter *httpmiddleware.RateLimiter

	// Ready reports whether backing stores are reachable (optional).
	Ready func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.Ready))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Route("/api/leads", func(r chi.Router) {
			if cfg.IntakeLimiter != nil {
				r.Use(httpmiddleware.RateLimit(cfg.IntakeLimiter))
			}
			r.Post("/", cfg.LeadsHandler.CreateLead)
		})
	})

	// Supplier app (bearer token with role=supplier)
	r.Route("/supplier", func(supplier chi.Router) {
		supplier.Use(httpmiddleware.RequireRole(cfg.AuthSecret, tenancy.RoleSupplier))
		if cfg.SupplierLeads != nil {
			supplier.Get("/leads", cfg.SupplierLeads.ListLeads)
			supplier.Get("/stats", cfg.SupplierLeads.Stats)
			supplier.Route("/leads/{leadID}", func(lead chi.Router) {
				lead.Post("/unmask", cfg.SupplierLeads.Unmask)
				lead.Patch("/interaction", cfg.SupplierLeads.UpdateInteraction)
				lead.Post("/bookmark", cfg.SupplierLeads.ToggleBookmark)
			})
		}
		if cfg.SupplierEvents != nil {
			supplier.Get("/events", cfg.SupplierEvents.Stream)
		}
	})

	// Operator routes
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.RequireRole(cfg.AuthSecret, tenancy.RoleAdmin))
		admin.Post("/leads/expire", cfg.LeadsHandler.ExpireNow)
		admin.Post("/leads/{leadID}/fulfill", cfg.LeadsHandler.Fulfill)
		admin.Post("/leads/{leadID}/drop", cfg.LeadsHandler.Drop)
	})

	return r
}

func healthHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
