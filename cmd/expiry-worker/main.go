package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wolfman30/parto-platform/internal/app/bootstrap"
	"github.com/wolfman30/parto-platform/internal/config"
	expiryworker "github.com/wolfman30/parto-platform/internal/worker/expiry"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" || cfg.UseMemoryStore {
		logger.Error("expiry worker requires DATABASE_URL; memory mode sweeps inside the API")
		os.Exit(1)
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	engine, err := bootstrap.BuildEngine(cfg, bootstrap.Deps{Pool: pool, Logger: logger})
	if err != nil {
		logger.Error("failed to build lead engine", "error", err)
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	sweeper := expiryworker.NewSweeper(engine.Leads, logger).WithInterval(cfg.ExpirySweepInterval)
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	logger.Info("expiry worker started", "interval", cfg.ExpirySweepInterval.String())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("expiry worker shutting down")
	cancel()
	<-done
}
