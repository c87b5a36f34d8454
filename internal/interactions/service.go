package interactions

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/parto-platform/internal/apperr"
	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/observability/metrics"
	"github.com/wolfman30/parto-platform/internal/suppliers"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

var ErrNoFlags = apperr.Validation(map[string]string{"flags": "at least one of hasInteracted, isStarred, isIgnored is required"})

// LeadReader is the lookup used to confirm a lead exists.
type LeadReader interface {
	GetByID(ctx context.Context, id string) (*leads.Lead, error)
}

// Service records supplier engagement. None of its operations consult or
// consume lead capacity.
type Service struct {
	repo      Repository
	leads     LeadReader
	directory suppliers.Directory
	publisher events.Publisher
	metrics   *metrics.EngineMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewService(repo Repository, leadReader LeadReader, directory suppliers.Directory, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		leads:     leadReader,
		directory: directory,
		publisher: events.Discard{},
		logger:    logger,
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

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// SetFlags upserts the supplier's flags on a lead.
func (s *Service) SetFlags(ctx context.Context, leadID, supplierID string, flags Flags) (*Record, error) {
	if flags.Empty() {
		return nil, ErrNoFlags
	}
	if err := s.resolve(ctx, leadID, supplierID); err != nil {
		return nil, err
	}
	rec, err := s.repo.Upsert(ctx, leadID, supplierID, flags, s.now())
	if err != nil {
		return nil, fmt.Errorf("interactions: set flags: %w", err)
	}
	s.metrics.ObserveInteraction("set_flags")
	s.publish(ctx, rec)
	return rec, nil
}

// ToggleBookmark flips the starred flag and returns the new value.
func (s *Service) ToggleBookmark(ctx context.Context, leadID, supplierID string) (bool, error) {
	if err := s.resolve(ctx, leadID, supplierID); err != nil {
		return false, err
	}
	rec, err := s.repo.ToggleStar(ctx, leadID, supplierID, s.now())
	if err != nil {
		return false, fmt.Errorf("interactions: toggle bookmark: %w", err)
	}
	s.metrics.ObserveInteraction("toggle_bookmark")
	s.publish(ctx, rec)
	return rec.IsStarred, nil
}

// resolve confirms the supplier is active and the lead exists before a write.
func (s *Service) resolve(ctx context.Context, leadID, supplierID string) error {
	if _, err := suppliers.RequireActive(ctx, s.directory, supplierID); err != nil {
		return err
	}
	if _, err := s.leads.GetByID(ctx, leadID); err != nil {
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, leadID, supplierID string) (*Record, error) {
	return s.repo.Get(ctx, leadID, supplierID)
}

func (s *Service) publish(ctx context.Context, rec *Record) {
	evt, err := events.New(events.TypeInteractionUpdated, rec.LeadID, rec.SupplierID, s.now(), events.InteractionUpdatedV1{
		HasInteracted: rec.HasInteracted,
		IsStarred:     rec.IsStarred,
		IsIgnored:     rec.IsIgnored,
	})
	if err != nil {
		s.logger.Error("failed to build event", "error", err, "lead_id", rec.LeadID)
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish interaction event", "error", err, "lead_id", rec.LeadID, "supplier_id", rec.SupplierID)
	}
}
