package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/parto-platform/internal/events"
)

func dialEvents(t *testing.T, app *testApp, supplier string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(app.router)
	t.Cleanup(srv.Close)

	cfg, err := websocket.NewConfig("ws"+strings.TrimPrefix(srv.URL, "http")+"/supplier/events", srv.URL)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Header = http.Header{"X-Test-Supplier": []string{supplier}}
	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var ready StreamMessage
	receive(t, conn, &ready)
	if ready.Type != "ready" {
		t.Fatalf("expected ready, got %q", ready.Type)
	}
	return conn
}

func receive(t *testing.T, conn *websocket.Conn, dst *StreamMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.JSON.Receive(conn, dst); err != nil {
		t.Fatalf("receive: %v", err)
	}
}

func TestSupplierEventsStream(t *testing.T) {
	app := newTestApp(t)
	conn := dialEvents(t, app, "sup-1")
	ctx := context.Background()

	private, _ := events.New(events.TypeInteractionUpdated, "lead-a", "sup-2", time.Now(), events.InteractionUpdatedV1{IsStarred: true})
	other, _ := events.New(events.TypeLeadUnmasked, "lead-a", "sup-2", time.Now(), events.LeadUnmaskedV1{UnmaskCount: 1})
	_ = app.broker.Publish(ctx, private)
	_ = app.broker.Publish(ctx, other)

	var msg StreamMessage
	receive(t, conn, &msg)
	if msg.Type != "event" || msg.Event == nil {
		t.Fatalf("expected event, got %#v", msg)
	}
	if msg.Event.ID != other.ID {
		t.Fatalf("expected the unmask event, got %s", msg.Event.Type)
	}
	if msg.Event.SupplierID != "" {
		t.Fatalf("other supplier id should be hidden, got %q", msg.Event.SupplierID)
	}
}

func TestSupplierEventsPingPong(t *testing.T) {
	app := newTestApp(t)
	conn := dialEvents(t, app, "sup-1")

	if err := websocket.JSON.Send(conn, map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	var msg StreamMessage
	receive(t, conn, &msg)
	if msg.Type != "pong" {
		t.Fatalf("expected pong, got %q", msg.Type)
	}
}

func TestSupplierEventsRejectsInactiveSupplier(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/supplier/events", "sup-off", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "SUPPLIER_INACTIVE") {
		t.Fatalf("expected SUPPLIER_INACTIVE body, got %s", rec.Body.String())
	}

	rec = app.do(http.MethodGet, "/supplier/events", "ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown supplier, got %d", rec.Code)
	}
}

func TestVisibleTo(t *testing.T) {
	own := events.Event{Type: events.TypeInteractionUpdated, SupplierID: "me"}
	if _, ok := visibleTo(own, "me"); !ok {
		t.Fatal("own interaction should be visible")
	}
	created := events.Event{Type: events.TypeLeadCreated}
	if _, ok := visibleTo(created, "me"); !ok {
		t.Fatal("lead.created should be visible")
	}
}
