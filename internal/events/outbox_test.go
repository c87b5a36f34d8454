package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, evt Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, evt)
	return nil
}

func TestOutboxStoreFlow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewOutboxStore(mock)
	evt, err := New(TypeLeadCreated, "lead-1", "", time.Now(), LeadCreatedV1{VehicleMake: "Maruti"})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}

	mock.ExpectExec("INSERT INTO outbox").WithArgs(evt.ID, "lead-1", "lead.created", pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := store.Publish(context.Background(), evt); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	now := time.Now().UTC()
	id := uuid.New()
	raw, _ := json.Marshal(evt)
	rows := pgxmock.NewRows([]string{"id", "lead_id", "type", "payload", "created_at"}).AddRow(id, "lead-1", "lead.created", raw, now)
	mock.ExpectQuery("SELECT id").WithArgs(int32(10)).WillReturnRows(rows)

	entries, err := store.FetchPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch pending failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("unexpected entries: %#v", entries)
	}

	mock.ExpectExec("UPDATE outbox").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := store.MarkDelivered(context.Background(), id)
	if err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if !ok {
		t.Fatal("expected mark delivered to report success")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOutboxInsertUsesCallerTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewOutboxStore(mock)
	evt, _ := New(TypeLeadUnmasked, "lead-2", "sup-1", time.Now(), LeadUnmaskedV1{UnmaskCount: 1, SlotsLeft: 4})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox").WithArgs(evt.ID, "lead-2", "lead.unmasked", pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Insert(ctx, tx, evt); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelivererDrainPublishesAndMarks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	evt, _ := New(TypeLeadExpired, "lead-3", "", time.Now(), LeadExpiredV1{ExpiredAt: time.Now()})
	raw, _ := json.Marshal(evt)
	good := uuid.New()
	bad := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "lead_id", "type", "payload", "created_at"}).
		AddRow(bad, "lead-x", "lead.expired", []byte("not-json"), time.Now()).
		AddRow(good, "lead-3", "lead.expired", raw, time.Now())
	mock.ExpectQuery("SELECT id").WithArgs(int32(5)).WillReturnRows(rows)
	mock.ExpectExec("UPDATE outbox").WithArgs(good).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	pub := &recordingPublisher{}
	d := NewDeliverer(NewOutboxStore(mock), PublishHandler{Publisher: pub}, nil).WithBatchSize(5)
	if got := d.drain(context.Background()); got != 1 {
		t.Fatalf("expected 1 delivered, got %d", got)
	}
	if len(pub.events) != 1 || pub.events[0].ID != evt.ID {
		t.Fatalf("unexpected published events: %#v", pub.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("down")}
	evt, _ := New(TypeLeadCreated, "lead-1", "", time.Now(), LeadCreatedV1{})

	err := Fanout{ok, nil, failing}.Publish(context.Background(), evt)
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(ok.events) != 1 {
		t.Fatalf("healthy publisher should still receive the event")
	}
}

func TestNewRequiresLead(t *testing.T) {
	if _, err := New(TypeLeadCreated, " ", "", time.Now(), nil); err == nil {
		t.Fatal("expected error for blank lead id")
	}
}
