package unmask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/parto-platform/internal/apperr"
	"github.com/wolfman30/parto-platform/internal/eligibility"
	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/observability/metrics"
	"github.com/wolfman30/parto-platform/internal/suppliers"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

var tracer = otel.Tracer("parto/unmask")

// Service runs the capacity-gated reveal.
type Service struct {
	store     Store
	directory suppliers.Directory
	max       int
	metrics   *metrics.EngineMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewService(store Store, directory suppliers.Directory, logger *logging.Logger) *Service {
	if store == nil || directory == nil {
		panic("unmask: store and directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     store,
		directory: directory,
		max:       eligibility.DefaultMaxSuppliersPerLead,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WithMaxSuppliers(n int) *Service {
	if n > 0 {
		s.max = n
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

// Unmask reveals the buyer phone of leadID to supplierID.
func (s *Service) Unmask(ctx context.Context, leadID, supplierID string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "unmask.Unmask")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID), attribute.String("supplier.id", supplierID))

	result, err := s.unmask(ctx, strings.TrimSpace(leadID), supplierID)
	outcome := outcomeOf(result, err)
	span.SetAttributes(attribute.String("unmask.outcome", outcome))
	s.metrics.ObserveUnmask(outcome)

	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			span.RecordError(err)
			s.logger.Error("unmask failed",
				"error", err,
				"lead_id", leadID,
				"supplier_id", supplierID,
				"op", "unmask",
				"at", s.now().UTC(),
			)
			return nil, apperr.Internal(err)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) unmask(ctx context.Context, leadID, supplierID string) (*Result, error) {
	if leadID == "" {
		return nil, leads.ErrLeadNotFound
	}
	supplier, err := suppliers.RequireActive(ctx, s.directory, supplierID)
	if err != nil {
		if errors.Is(err, suppliers.ErrSupplierInactive) {
			return nil, eligibility.ErrNotEligible
		}
		return nil, err
	}

	now := s.now().UTC()
	var result *Result
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		lead, err := tx.LockLead(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.Expired(now) {
			return ErrLeadExpired
		}

		count, err := tx.CountViews(ctx, leadID)
		if err != nil {
			return err
		}

		existing, err := tx.FindView(ctx, leadID, supplierID)
		if err != nil {
			return err
		}
		rec, err := tx.Interaction(ctx, leadID, supplierID)
		if err != nil {
			return err
		}
		// Eligibility applies to repeats too; capacity only to new views.
		if existing != nil {
			if !eligibility.IsEligible(lead, supplier, rec) {
				return eligibility.ErrNotEligible
			}
			result = &Result{
				LeadID:          leadID,
				Phone:           lead.BuyerPhone,
				UnmaskedAt:      existing.UnmaskedAt,
				AlreadyUnmasked: true,
				SlotsLeft:       eligibility.SlotsLeft(count, s.max),
			}
			return nil
		}

		if err := eligibility.Check(lead, supplier, rec, count, s.max); err != nil {
			return err
		}

		if err := tx.InsertView(ctx, View{LeadID: leadID, SupplierID: supplierID, UnmaskedAt: now}); err != nil {
			return err
		}
		firstEngagement := lead.State == leads.StateNew
		if firstEngagement {
			if err := tx.Activate(ctx, leadID, now); err != nil {
				return err
			}
		}

		count++
		evt, err := events.New(events.TypeLeadUnmasked, leadID, supplierID, now, events.LeadUnmaskedV1{
			UnmaskCount:     count,
			SlotsLeft:       eligibility.SlotsLeft(count, s.max),
			FirstEngagement: firstEngagement,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}

		result = &Result{
			LeadID:     leadID,
			Phone:      lead.BuyerPhone,
			UnmaskedAt: now,
			SlotsLeft:  eligibility.SlotsLeft(count, s.max),
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("unmask: lead %s: %w", leadID, err)
	}
	return result, nil
}

func outcomeOf(result *Result, err error) string {
	switch {
	case err == nil && result != nil && result.AlreadyUnmasked:
		return "already_unmasked"
	case err == nil:
		return "granted"
	case errors.Is(err, eligibility.ErrCapacityReached):
		return "capacity_reached"
	case errors.Is(err, ErrLeadExpired):
		return "expired"
	case errors.Is(err, eligibility.ErrNotEligible):
		return "not_eligible"
	case apperr.KindOf(err) == apperr.KindNotFound:
		return "not_found"
	}
	return "error"
}
