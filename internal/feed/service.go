// Package feed builds the supplier lead feed: open leads in the supplier's
// brands, newest first, decorated for display with the buyer phone masked.
package feed

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/parto-platform/internal/eligibility"
	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/observability/metrics"
	"github.com/wolfman30/parto-platform/internal/suppliers"
)

var tracer = otel.Tracer("parto/feed")

const (
	DefaultPageSize        = 10
	MaxPageSize            = 50
	DefaultUrgentThreshold = 30 * time.Minute
	// slaHealthyMinutes is the average time-to-unmask under which a
	// supplier is rated EXCELLENT.
	slaHealthyMinutes = 120
)

// Query is a feed request from one supplier.
type Query struct {
	Filter   interactions.Filter
	Page     int
	PageSize int
}

// Card is one decorated lead. It never carries the raw buyer phone.
type Card struct {
	ID             string          `json:"id"`
	RefID          string          `json:"refId"`
	RefNo          string          `json:"refNo"`
	VehicleMake    string          `json:"vehicleMake"`
	VehicleModel   string          `json:"vehicleModel"`
	VehicleYear    int             `json:"vehicleYear"`
	RequestedParts []string        `json:"requestedParts"`
	Condition      leads.Condition `json:"condition"`
	LocationText   string          `json:"locationText"`
	Region         string          `json:"region"`
	State          leads.State     `json:"state"`
	CreatedAt      time.Time       `json:"createdAt"`
	SLADeadline    time.Time       `json:"slaDeadline"`
	TimeRemaining  string          `json:"timeRemaining"`
	IsUrgent       bool            `json:"isUrgent"`
	MaskedPhone    string          `json:"maskedPhone"`
	UnmaskCount    int             `json:"unmaskCount"`
	SlotsLeft      int             `json:"slotsLeft"`
	Unmasked       bool            `json:"unmasked"`
	HasInteracted  bool            `json:"hasInteracted"`
	IsStarred      bool            `json:"isStarred"`
	IsIgnored      bool            `json:"isIgnored"`
}

// Page is one slice of the feed.
type Page struct {
	Cards    []Card              `json:"leads"`
	Filter   interactions.Filter `json:"filter"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
	HasMore  bool                `json:"hasMore"`
}

// Stats is the supplier performance panel.
type Stats struct {
	UnmaskedLeads       int     `json:"unmaskedLeads"`
	ActiveLeads         int     `json:"activeLeads"`
	ConversionPotential string  `json:"conversionPotential"`
	AvgMinutesToUnmask  float64 `json:"avgMinutesToUnmask"`
	SLACompliance       string  `json:"slaCompliance"`
}

type Service struct {
	source    Source
	directory suppliers.Directory
	max       int
	urgent    time.Duration
	pageSize  int
	metrics   *metrics.EngineMetrics
	now       func() time.Time
}

func NewService(source Source, directory suppliers.Directory) *Service {
	return &Service{
		source:    source,
		directory: directory,
		max:       eligibility.DefaultMaxSuppliersPerLead,
		urgent:    DefaultUrgentThreshold,
		pageSize:  DefaultPageSize,
		now:       time.Now,
	}
}

func (s *Service) WithMaxSuppliers(n int) *Service {
	if n > 0 {
		s.max = n
	}
	return s
}

func (s *Service) WithUrgentThreshold(d time.Duration) *Service {
	if d > 0 {
		s.urgent = d
	}
	return s
}

func (s *Service) WithPageSize(n int) *Service {
	if n > 0 && n <= MaxPageSize {
		s.pageSize = n
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

// Feed returns one page of decorated leads for supplierID.
func (s *Service) Feed(ctx context.Context, supplierID string, q Query) (*Page, error) {
	start := time.Now()
	if q.Filter == "" {
		q.Filter = interactions.FilterAll
	}
	ctx, span := tracer.Start(ctx, "feed.Feed")
	defer span.End()
	span.SetAttributes(attribute.String("supplier.id", supplierID), attribute.String("feed.filter", string(q.Filter)))
	defer func() { s.metrics.ObserveFeedLatency(string(q.Filter), time.Since(start).Seconds()) }()

	supplier, err := suppliers.RequireActive(ctx, s.directory, supplierID)
	if err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = s.pageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	candidates, err := s.source.Candidates(ctx, CandidateQuery{
		SupplierID: supplier.ID,
		Brands:     supplier.NormalizedBrands(),
		Filter:     q.Filter,
		Limit:      q.PageSize + 1,
		Offset:     (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("feed: load page: %w", err)
	}

	page := &Page{Filter: q.Filter, Page: q.Page, PageSize: q.PageSize, Cards: []Card{}}
	if len(candidates) > q.PageSize {
		page.HasMore = true
		candidates = candidates[:q.PageSize]
	}
	now := s.now()
	for _, c := range candidates {
		page.Cards = append(page.Cards, s.decorate(c, now))
	}
	span.SetAttributes(attribute.Int("feed.cards", len(page.Cards)))
	return page, nil
}

func (s *Service) decorate(c Candidate, now time.Time) Card {
	lead := c.Lead
	remaining := lead.SLADeadline.Sub(now)
	card := Card{
		ID:             lead.ID,
		RefID:          RefID(lead.ID),
		RefNo:          RefNo(lead.ID),
		VehicleMake:    lead.VehicleMake,
		VehicleModel:   lead.VehicleModel,
		VehicleYear:    lead.VehicleYear,
		RequestedParts: lead.RequestedParts,
		Condition:      lead.Condition,
		LocationText:   lead.LocationText,
		Region:         Region(lead.LocationText),
		State:          lead.State,
		CreatedAt:      lead.CreatedAt,
		SLADeadline:    lead.SLADeadline,
		TimeRemaining:  FormatRemaining(remaining),
		IsUrgent:       remaining >= 0 && remaining < s.urgent,
		MaskedPhone:    MaskPhone(lead.BuyerPhone),
		UnmaskCount:    c.UnmaskCount,
		SlotsLeft:      eligibility.SlotsLeft(c.UnmaskCount, s.max),
		Unmasked:       c.UnmaskedBySupplier,
	}
	if c.Interaction != nil {
		card.HasInteracted = c.Interaction.HasInteracted
		card.IsStarred = c.Interaction.IsStarred
		card.IsIgnored = c.Interaction.IsIgnored
	}
	return card
}

// Stats summarises the supplier's reveals against the active lead pool.
func (s *Service) Stats(ctx context.Context, supplierID string) (*Stats, error) {
	if _, err := suppliers.RequireActive(ctx, s.directory, supplierID); err != nil {
		return nil, err
	}
	counts, err := s.source.Counts(ctx, supplierID, s.now())
	if err != nil {
		return nil, fmt.Errorf("feed: stats: %w", err)
	}
	stats := &Stats{
		UnmaskedLeads:       counts.Unmasked,
		ActiveLeads:         counts.Active,
		ConversionPotential: ConversionPotential(counts.Unmasked, counts.Active),
		AvgMinutesToUnmask:  counts.AvgMinutesToUnmask,
		SLACompliance:       "EXCELLENT",
	}
	if counts.AvgMinutesToUnmask >= slaHealthyMinutes {
		stats.SLACompliance = "RISK"
	}
	return stats, nil
}

// ConversionPotential formats unmasked/active as a percentage with one
// decimal. No active leads reads as 0.0%.
func ConversionPotential(unmasked, active int) string {
	if active <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(unmasked)/float64(active)*100)
}
