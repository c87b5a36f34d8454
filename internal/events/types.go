package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type names an engine event.
type Type string

const (
	TypeLeadCreated        Type = "lead.created"
	TypeLeadUnmasked       Type = "lead.unmasked"
	TypeLeadExpired        Type = "lead.expired"
	TypeLeadTransitioned   Type = "lead.transitioned"
	TypeInteractionUpdated Type = "interaction.updated"
)

// Event is the envelope published after engine state changes. Payload holds
// one of the *V1 structs below; buyer contact details never go in here.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	LeadID     string          `json:"lead_id"`
	SupplierID string          `json:"supplier_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type LeadCreatedV1 struct {
	VehicleMake  string    `json:"vehicle_make"`
	VehicleModel string    `json:"vehicle_model"`
	SLADeadline  time.Time `json:"sla_deadline"`
}

type LeadUnmaskedV1 struct {
	UnmaskCount     int  `json:"unmask_count"`
	SlotsLeft       int  `json:"slots_left"`
	FirstEngagement bool `json:"first_engagement"`
}

type LeadExpiredV1 struct {
	ExpiredAt time.Time `json:"expired_at"`
}

type LeadTransitionedV1 struct {
	State string `json:"state"`
}

type InteractionUpdatedV1 struct {
	HasInteracted bool `json:"has_interacted"`
	IsStarred     bool `json:"is_starred"`
	IsIgnored     bool `json:"is_ignored"`
}

var errMissingLead = errors.New("events: lead id is required")

// New builds an event with a fresh id.
func New(t Type, leadID, supplierID string, at time.Time, payload any) (Event, error) {
	if strings.TrimSpace(leadID) == "" {
		return Event{}, errMissingLead
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	return Event{
		ID:         uuid.New(),
		Type:       t,
		LeadID:     leadID,
		SupplierID: supplierID,
		OccurredAt: at.UTC(),
		Payload:    data,
	}, nil
}

// Decode unmarshals the payload into dst.
func (e Event) Decode(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("events: empty payload for %s", e.Type)
	}
	return json.Unmarshal(e.Payload, dst)
}

// Publisher hands events to a transport.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Fanout publishes to every publisher and joins the failures.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
