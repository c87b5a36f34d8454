package interactions

import (
	"context"
	"sync"
	"time"
)

// Repository persists interaction records keyed by (lead, supplier).
type Repository interface {
	Upsert(ctx context.Context, leadID, supplierID string, flags Flags, at time.Time) (*Record, error)
	ToggleStar(ctx context.Context, leadID, supplierID string, at time.Time) (*Record, error)
	// Get returns nil, nil when the supplier never touched the lead.
	Get(ctx context.Context, leadID, supplierID string) (*Record, error)
	ListBySupplier(ctx context.Context, supplierID string) (map[string]*Record, error)
}

type key struct{ lead, supplier string }

// InMemoryRepository implements Repository with a mutex-guarded map.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[key]*Record
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[key]*Record)}
}

func (r *InMemoryRepository) Upsert(_ context.Context, leadID, supplierID string, flags Flags, at time.Time) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.recordLocked(leadID, supplierID)
	flags.apply(rec, at.UTC())
	return rec.clone(), nil
}

func (r *InMemoryRepository) ToggleStar(_ context.Context, leadID, supplierID string, at time.Time) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.recordLocked(leadID, supplierID)
	rec.IsStarred = !rec.IsStarred
	rec.UpdatedAt = at.UTC()
	return rec.clone(), nil
}

func (r *InMemoryRepository) recordLocked(leadID, supplierID string) *Record {
	k := key{leadID, supplierID}
	rec, ok := r.records[k]
	if !ok {
		rec = &Record{LeadID: leadID, SupplierID: supplierID}
		r.records[k] = rec
	}
	return rec
}

func (r *InMemoryRepository) Get(_ context.Context, leadID, supplierID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key{leadID, supplierID}]
	if !ok {
		return nil, nil
	}
	return rec.clone(), nil
}

func (r *InMemoryRepository) ListBySupplier(_ context.Context, supplierID string) (map[string]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Record)
	for k, rec := range r.records {
		if k.supplier == supplierID {
			out[k.lead] = rec.clone()
		}
	}
	return out, nil
}
