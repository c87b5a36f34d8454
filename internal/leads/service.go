package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/observability/metrics"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

var tracer = otel.Tracer("parto/leads")

// DefaultSLAWindow is how long a lead stays open after creation.
const DefaultSLAWindow = 2 * time.Hour

// Service owns the lead lifecycle.
type Service struct {
	repo      Repository
	publisher events.Publisher
	metrics   *metrics.EngineMetrics
	logger    *logging.Logger
	slaWindow time.Duration
	now       func() time.Time
}

func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		publisher: events.Discard{},
		logger:    logger,
		slaWindow: DefaultSLAWindow,
		now:       time.Now,
	}
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

func (s *Service) WithMetrics(m *metrics.EngineMetrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithSLAWindow(d time.Duration) *Service {
	if d > 0 {
		s.slaWindow = d
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create validates the request and stores a NEW lead.
func (s *Service) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, err
	}
	lead := req.toLead(uuid.New().String(), now, s.slaWindow)
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("leads: create: %w", err)
	}
	s.metrics.ObserveLeadCreated()
	s.publish(ctx, events.TypeLeadCreated, lead.ID, events.LeadCreatedV1{
		VehicleMake:  lead.VehicleMake,
		VehicleModel: lead.VehicleModel,
		SLADeadline:  lead.SLADeadline,
	})
	return lead, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// AdvanceToActive marks the first supplier engagement. Already ACTIVE is a
// no-op.
func (s *Service) AdvanceToActive(ctx context.Context, id string) error {
	return s.transition(ctx, id, StateActive)
}

func (s *Service) MarkFulfilled(ctx context.Context, id string) error {
	return s.transition(ctx, id, StateFulfilled)
}

func (s *Service) Drop(ctx context.Context, id string) error {
	return s.transition(ctx, id, StateDropped)
}

func (s *Service) transition(ctx context.Context, id string, to State) error {
	changed, err := s.repo.Transition(ctx, id, to, s.now())
	if err != nil {
		return err
	}
	if changed {
		s.metrics.ObserveTransition(string(to))
		s.publish(ctx, events.TypeLeadTransitioned, id, events.LeadTransitionedV1{State: string(to)})
	}
	return nil
}

// ExpireOverdue sweeps open leads past their deadline into SLA_BREACH.
func (s *Service) ExpireOverdue(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "leads.expire_overdue")
	defer span.End()

	now := s.now()
	ids, err := s.repo.ExpireOverdue(ctx, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("leads: expire overdue: %w", err)
	}
	span.SetAttributes(attribute.Int("leads.expired", len(ids)))
	s.metrics.ObserveLeadsExpired(len(ids))
	for _, id := range ids {
		s.publish(ctx, events.TypeLeadExpired, id, events.LeadExpiredV1{ExpiredAt: now.UTC()})
	}
	return ids, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, leadID string, payload any) {
	evt, err := events.New(t, leadID, "", s.now(), payload)
	if err != nil {
		s.logger.Error("failed to build event", "error", err, "type", t, "lead_id", leadID)
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", "error", err, "type", t, "lead_id", leadID)
	}
}
