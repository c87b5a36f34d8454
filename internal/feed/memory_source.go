package feed

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/internal/unmask"
)

// MemorySource reads straight from the in-memory stores.
type MemorySource struct {
	leads        *leads.InMemoryRepository
	interactions interactions.Repository
	views        *unmask.MemoryStore
}

func NewMemorySource(leadRepo *leads.InMemoryRepository, interactionRepo interactions.Repository, views *unmask.MemoryStore) *MemorySource {
	return &MemorySource{leads: leadRepo, interactions: interactionRepo, views: views}
}

func (s *MemorySource) Candidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	brands := make(map[string]struct{}, len(q.Brands))
	for _, b := range q.Brands {
		brands[b] = struct{}{}
	}
	recs, err := s.interactions.ListBySupplier(ctx, q.SupplierID)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	skipped := 0
	for _, lead := range s.leads.List() {
		if !lead.State.IsOpen() {
			continue
		}
		if _, ok := brands[strings.ToLower(strings.TrimSpace(lead.VehicleMake))]; !ok {
			continue
		}
		rec := recs[lead.ID]
		if !q.Filter.Matches(rec) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, Candidate{
			Lead:               lead,
			Interaction:        rec,
			UnmaskCount:        s.views.Count(lead.ID),
			UnmaskedBySupplier: s.views.Has(lead.ID, q.SupplierID),
		})
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemorySource) Counts(_ context.Context, supplierID string, _ time.Time) (Counts, error) {
	var (
		c     Counts
		total time.Duration
	)
	for _, lead := range s.leads.List() {
		if lead.State == leads.StateActive {
			c.Active++
		}
		for _, v := range s.views.Views(lead.ID) {
			if v.SupplierID == supplierID {
				c.Unmasked++
				total += v.UnmaskedAt.Sub(lead.CreatedAt)
			}
		}
	}
	if c.Unmasked > 0 {
		c.AvgMinutesToUnmask = total.Minutes() / float64(c.Unmasked)
	}
	return c, nil
}
