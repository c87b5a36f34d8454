package leads

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	// Create upserts the buyer by phone and inserts the lead in one unit of
	// work. BuyerID is filled in on success.
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	// Transition moves a lead to the given state under the monotonic rules.
	// It reports whether anything changed. Entering ACTIVE stamps
	// FirstEngagementAt when it is still empty.
	Transition(ctx context.Context, id string, to State, at time.Time) (bool, error)
	// ExpireOverdue moves open leads past their deadline to SLA_BREACH and
	// returns their ids.
	ExpireOverdue(ctx context.Context, now time.Time) ([]string, error)
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu     sync.RWMutex
	leads  map[string]*Lead
	buyers map[string]*Buyer // by phone
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:  make(map[string]*Lead),
		buyers: make(map[string]*Buyer),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) error {
	if lead == nil {
		return fmt.Errorf("leads: nil lead")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buyer, ok := r.buyers[lead.BuyerPhone]
	if !ok {
		buyer = &Buyer{ID: uuid.New().String(), PhoneNumber: lead.BuyerPhone, CreatedAt: lead.CreatedAt}
		r.buyers[lead.BuyerPhone] = buyer
	}
	lead.BuyerID = buyer.ID
	r.leads[lead.ID] = lead.clone()
	return nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead.clone(), nil
}

func (r *InMemoryRepository) Transition(ctx context.Context, id string, to State, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return false, ErrLeadNotFound
	}
	if !CanTransition(lead.State, to) {
		return false, fmt.Errorf("leads: %s to %s: %w", lead.State, to, ErrInvalidTransition)
	}
	if lead.State == to {
		return false, nil
	}
	lead.State = to
	if to == StateActive && lead.FirstEngagementAt == nil {
		t := at.UTC()
		lead.FirstEngagementAt = &t
	}
	return true, nil
}

func (r *InMemoryRepository) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for id, lead := range r.leads {
		if lead.State.IsOpen() && lead.SLADeadline.Before(now) {
			lead.State = StateSLABreach
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired, nil
}

// List returns a snapshot of every lead, newest first.
func (r *InMemoryRepository) List() []*Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, lead.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
