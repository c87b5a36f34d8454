package leads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/parto-platform/internal/events"
)

type captured struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captured) Publish(_ context.Context, evt events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *captured) types() []events.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Type, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *InMemoryRepository, *captured, *clock) {
	t.Helper()
	repo := NewInMemoryRepository()
	pub := &captured{}
	clk := &clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, nil).WithPublisher(pub).WithClock(clk.Now)
	return svc, repo, pub, clk
}

func TestCreateStoresNewLeadWithDeadline(t *testing.T) {
	svc, _, pub, clk := newTestService(t)
	req := validRequest()

	lead, err := svc.Create(context.Background(), &req)
	require.NoError(t, err)
	assert.Equal(t, StateNew, lead.State)
	assert.Equal(t, clk.t.Add(2*time.Hour), lead.SLADeadline)
	assert.Equal(t, "9876543210", lead.BuyerPhone)
	assert.Equal(t, []events.Type{events.TypeLeadCreated}, pub.types())

	stored, err := svc.Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.BuyerID, stored.BuyerID)
}

func TestCreateReusesBuyerByPhone(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	a, b := validRequest(), validRequest()
	b.Phone = "9876543210"

	first, err := svc.Create(context.Background(), &a)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), &b)
	require.NoError(t, err)
	assert.Equal(t, first.BuyerID, second.BuyerID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAdvanceToActiveStampsFirstEngagementOnce(t *testing.T) {
	svc, _, _, clk := newTestService(t)
	req := validRequest()
	lead, err := svc.Create(context.Background(), &req)
	require.NoError(t, err)

	clk.t = clk.t.Add(10 * time.Minute)
	require.NoError(t, svc.AdvanceToActive(context.Background(), lead.ID))
	first := clk.t

	clk.t = clk.t.Add(10 * time.Minute)
	require.NoError(t, svc.AdvanceToActive(context.Background(), lead.ID))

	got, err := svc.Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StateActive, got.State)
	require.NotNil(t, got.FirstEngagementAt)
	assert.True(t, got.FirstEngagementAt.Equal(first))
}

func TestTerminalStatesNeverRegress(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	req := validRequest()
	lead, err := svc.Create(context.Background(), &req)
	require.NoError(t, err)

	require.NoError(t, svc.MarkFulfilled(context.Background(), lead.ID))
	err = svc.AdvanceToActive(context.Background(), lead.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	err = svc.Drop(context.Background(), lead.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.NoError(t, svc.MarkFulfilled(context.Background(), lead.ID))
}

func TestAdvanceUnknownLead(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.AdvanceToActive(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrLeadNotFound))
}

func TestExpireOverdueIsIdempotent(t *testing.T) {
	svc, _, pub, clk := newTestService(t)
	req := validRequest()
	lead, err := svc.Create(context.Background(), &req)
	require.NoError(t, err)

	clk.t = clk.t.Add(3 * time.Hour)
	ids, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{lead.ID}, ids)

	got, err := svc.Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSLABreach, got.State)

	ids, err = svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, []events.Type{events.TypeLeadCreated, events.TypeLeadExpired}, pub.types())
}

func TestExpireOverdueSkipsOpenAndTerminal(t *testing.T) {
	svc, _, _, clk := newTestService(t)
	fresh, done := validRequest(), validRequest()
	a, err := svc.Create(context.Background(), &done)
	require.NoError(t, err)
	require.NoError(t, svc.MarkFulfilled(context.Background(), a.ID))

	clk.t = clk.t.Add(90 * time.Minute)
	_, err = svc.Create(context.Background(), &fresh)
	require.NoError(t, err)

	clk.t = clk.t.Add(40 * time.Minute)
	ids, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
