package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/parto-platform/internal/api/router"
	"github.com/wolfman30/parto-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/parto-platform/internal/config"
	"github.com/wolfman30/parto-platform/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/parto-platform/internal/http/middleware"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/observability/metrics"
	expiryworker "github.com/wolfman30/parto-platform/internal/worker/expiry"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting parto-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	metricsHandler, engineMetrics := setupMetrics()
	engine, err := bootstrap.BuildEngine(cfg, bootstrap.Deps{
		Pool:    pool,
		Redis:   redisClient,
		Metrics: engineMetrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to build lead engine", "error", err)
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()
	engine.StartBackground(ctx)

	// Memory stores are only reachable from this process.
	if cfg.UseMemoryStore || pool == nil {
		go expiryworker.NewSweeper(engine.Leads, logger).WithInterval(cfg.ExpirySweepInterval).Run(ctx)
	}

	intakeLimiter := httpmiddleware.NewRateLimiter(cfg.IntakeRatePerSec, cfg.IntakeBurst)
	go sweepLimiter(ctx, intakeLimiter, 5*time.Minute, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:       logger,
		LeadsHandler: leads.NewHandler(engine.Leads, logger),
		SupplierLeads: handlers.NewSupplierLeadsHandler(handlers.SupplierLeadsConfig{
			Feed:         engine.Feed,
			Unmask:       engine.Unmask,
			Interactions: engine.Interactions,
			Logger:       logger,
		}),
		SupplierEvents:     handlers.NewSupplierEventsHandler(engine.Broker, engine.Directory, logger),
		AuthSecret:         cfg.AuthJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IntakeLimiter:      intakeLimiter,
	}
	if pool != nil {
		routerCfg.Ready = pool.Ping
	}
	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set; supplier and admin routes will reject every request")
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.EngineMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewEngineMetrics(reg)
}

// connectPostgresPool returns nil for an empty URL and exits on a bad one.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	pool, err := bootstrap.BuildPostgresPool(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		logger.Warn("DATABASE_URL not set; using in-memory stores")
	}
	return pool
}

func sweepLimiter(ctx context.Context, limiter *httpmiddleware.RateLimiter, every time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logger.Debug("rate limiter swept idle clients", "removed", n)
			}
		}
	}
}
