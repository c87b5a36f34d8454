package events

import (
	"context"
	"testing"
	"time"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	evt, _ := New(TypeLeadUnmasked, "lead-1", "sup-1", time.Now(), LeadUnmaskedV1{UnmaskCount: 1})
	if err := b.Publish(context.Background(), evt); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case got := <-ch:
		if got.ID != evt.ID {
			t.Fatalf("unexpected event %v", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBrokerDropsWhenBufferFull(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	evt, _ := New(TypeLeadCreated, "lead-1", "", time.Now(), LeadCreatedV1{})
	_ = b.Publish(context.Background(), evt)
	_ = b.Publish(context.Background(), evt)

	if len(ch) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(ch))
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(0)
	if b.Subscribers() != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
}
