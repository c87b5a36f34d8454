package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/parto-platform/internal/config"
	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/feed"
	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/observability/metrics"
	"github.com/wolfman30/parto-platform/internal/suppliers"
	"github.com/wolfman30/parto-platform/internal/unmask"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

// Deps are the connections the engine is assembled from. Pool and Redis may
// be nil.
type Deps struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *metrics.EngineMetrics
	Logger  *logging.Logger
}

// Engine is the fully wired lead distribution core.
type Engine struct {
	Leads        *leads.Service
	Interactions *interactions.Service
	Unmask       *unmask.Service
	Feed         *feed.Service
	Directory    suppliers.Directory

	// Broker fans events out to websocket subscribers in this process.
	Broker *events.Broker

	// Deliverer and Relay are nil in memory mode.
	Deliverer *events.Deliverer
	Relay     *events.RedisRelay

	closers []func() error
}

// BuildEngine wires the memory stores when cfg.UseMemoryStore is set or no
// pool is available, and the Postgres stores with outbox delivery otherwise.
func BuildEngine(cfg *appconfig.Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if cfg.UseMemoryStore || deps.Pool == nil {
		return buildMemoryEngine(cfg, deps)
	}
	return buildPostgresEngine(cfg, deps), nil
}

func buildMemoryEngine(cfg *appconfig.Config, deps Deps) (*Engine, error) {
	logger := deps.Logger
	directory := suppliers.NewInMemoryDirectory()
	if err := directory.LoadJSON(cfg.DevSuppliersJSON); err != nil {
		return nil, fmt.Errorf("bootstrap: load dev suppliers: %w", err)
	}

	broker := events.NewBroker()
	leadRepo := leads.NewInMemoryRepository()
	interactionRepo := interactions.NewInMemoryRepository()
	views := unmask.NewMemoryStore(leadRepo, interactionRepo, broker, logger)

	engine := &Engine{Broker: broker}
	engine.wireServices(cfg, deps, leadRepo, interactionRepo, views,
		feed.NewMemorySource(leadRepo, interactionRepo, views), directory, broker)
	logger.Info("lead engine using in-memory stores")
	return engine, nil
}

func buildPostgresEngine(cfg *appconfig.Config, deps Deps) *Engine {
	logger := deps.Logger
	broker := events.NewBroker()
	outbox := events.NewOutboxStore(deps.Pool)

	sqlDB := SQLFromPool(deps.Pool)
	leadRepo := leads.NewPostgresRepository(deps.Pool)
	interactionRepo := interactions.NewPostgresRepository(deps.Pool)

	engine := &Engine{Broker: broker}
	engine.closers = append(engine.closers, sqlDB.Close)
	engine.wireServices(cfg, deps, leadRepo, interactionRepo,
		unmask.NewPostgresStore(deps.Pool, outbox),
		feed.NewPostgresSource(deps.Pool),
		suppliers.NewSQLDirectory(sqlDB),
		outbox)

	// Outbox rows go to Redis when available so every API replica sees them;
	// the relay feeds them back into the local broker.
	var sink events.Publisher = broker
	if deps.Redis != nil {
		sink = events.NewRedisPublisher(deps.Redis, cfg.RedisChannelPrefix)
		engine.Relay = events.NewRedisRelay(deps.Redis, cfg.RedisChannelPrefix, broker, logger)
	}
	engine.Deliverer = events.NewDeliverer(outbox, events.PublishHandler{Publisher: sink}, logger).
		WithBatchSize(int32(cfg.OutboxBatchSize)).
		WithInterval(cfg.OutboxPollInterval)

	logger.Info("lead engine using postgres stores", "redis_fanout", deps.Redis != nil)
	return engine
}

func (e *Engine) wireServices(
	cfg *appconfig.Config,
	deps Deps,
	leadRepo leads.Repository,
	interactionRepo interactions.Repository,
	unmaskStore unmask.Store,
	source feed.Source,
	directory suppliers.Directory,
	publisher events.Publisher,
) {
	e.Leads = leads.NewService(leadRepo, deps.Logger).
		WithPublisher(publisher).
		WithMetrics(deps.Metrics).
		WithSLAWindow(cfg.LeadSLAWindow)
	e.Directory = directory
	e.Interactions = interactions.NewService(interactionRepo, leadRepo, directory, deps.Logger).
		WithPublisher(publisher).
		WithMetrics(deps.Metrics)
	e.Unmask = unmask.NewService(unmaskStore, directory, deps.Logger).
		WithMaxSuppliers(cfg.MaxSuppliersPerLead).
		WithMetrics(deps.Metrics)
	e.Feed = feed.NewService(source, directory).
		WithMaxSuppliers(cfg.MaxSuppliersPerLead).
		WithUrgentThreshold(cfg.UrgentThreshold).
		WithPageSize(cfg.FeedPageSize).
		WithMetrics(deps.Metrics)
}

// StartBackground runs the outbox deliverer and Redis relay until ctx ends.
func (e *Engine) StartBackground(ctx context.Context) {
	if e.Deliverer != nil {
		go e.Deliverer.Start(ctx)
	}
	if e.Relay != nil {
		go e.Relay.Run(ctx)
	}
}

func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
