package unmask

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/interactions"
	"github.com/wolfman30/parto-platform/internal/leads"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

// MemoryStore serialises unmasks with a mutex per lead and buffers writes
// until the unit of work succeeds.
type MemoryStore struct {
	leads        *leads.InMemoryRepository
	interactions interactions.Repository
	publisher    events.Publisher
	logger       *logging.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	mu    sync.RWMutex
	views map[string]map[string]View // by lead, then supplier
}

func NewMemoryStore(leadRepo *leads.InMemoryRepository, interactionRepo interactions.Repository, publisher events.Publisher, logger *logging.Logger) *MemoryStore {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{
		leads:        leadRepo,
		interactions: interactionRepo,
		publisher:    publisher,
		logger:       logger,
		locks:        make(map[string]*sync.Mutex),
		views:        make(map[string]map[string]View),
	}
}

func (s *MemoryStore) leadLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memTx{store: s}
	defer tx.unlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range tx.activations {
		if _, err := s.leads.Transition(ctx, id, leads.StateActive, tx.activatedAt); err != nil {
			return err
		}
	}
	s.mu.Lock()
	for _, v := range tx.pending {
		byLead, ok := s.views[v.LeadID]
		if !ok {
			byLead = make(map[string]View)
			s.views[v.LeadID] = byLead
		}
		if _, exists := byLead[v.SupplierID]; !exists {
			byLead[v.SupplierID] = v
		}
	}
	s.mu.Unlock()
	tx.unlock()

	for _, evt := range tx.events {
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("failed to publish unmask event", "error", err, "lead_id", evt.LeadID)
		}
	}
	return nil
}

// Count returns how many suppliers unmasked the lead.
func (s *MemoryStore) Count(leadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views[leadID])
}

// Has reports whether supplierID already unmasked leadID.
func (s *MemoryStore) Has(leadID, supplierID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.views[leadID][supplierID]
	return ok
}

// Views lists the reveals for a lead in time order.
func (s *MemoryStore) Views(leadID string) []View {
	s.mu.RLock()
	out := make([]View, 0, len(s.views[leadID]))
	for _, v := range s.views[leadID] {
		out = append(out, v)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UnmaskedAt.Before(out[j].UnmaskedAt) })
	return out
}

type memTx struct {
	store       *MemoryStore
	held        []*sync.Mutex
	pending     []View
	activations []string
	activatedAt time.Time
	events      []events.Event
}

func (t *memTx) unlock() {
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = nil
}

func (t *memTx) LockLead(ctx context.Context, leadID string) (*leads.Lead, error) {
	m := t.store.leadLock(leadID)
	m.Lock()
	t.held = append(t.held, m)
	return t.store.leads.GetByID(ctx, leadID)
}

func (t *memTx) FindView(_ context.Context, leadID, supplierID string) (*View, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if v, ok := t.store.views[leadID][supplierID]; ok {
		return &v, nil
	}
	return nil, nil
}

func (t *memTx) CountViews(_ context.Context, leadID string) (int, error) {
	return t.store.Count(leadID), nil
}

func (t *memTx) InsertView(_ context.Context, v View) error {
	t.pending = append(t.pending, v)
	return nil
}

func (t *memTx) Activate(_ context.Context, leadID string, at time.Time) error {
	t.activations = append(t.activations, leadID)
	t.activatedAt = at
	return nil
}

func (t *memTx) Interaction(ctx context.Context, leadID, supplierID string) (*interactions.Record, error) {
	return t.store.interactions.Get(ctx, leadID, supplierID)
}

func (t *memTx) AppendEvent(_ context.Context, evt events.Event) error {
	t.events = append(t.events, evt)
	return nil
}
