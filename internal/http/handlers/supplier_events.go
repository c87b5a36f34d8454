package handlers

import (
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/parto-platform/internal/events"
	"github.com/wolfman30/parto-platform/internal/suppliers"
	"github.com/wolfman30/parto-platform/pkg/logging"
)

// StreamMessage is what the supplier app receives on /supplier/events.
type StreamMessage struct {
	Type  string        `json:"type"`
	Event *events.Event `json:"event,omitempty"`
}

type inboundMessage struct {
	Type string `json:"type"`
}

// SupplierEventsHandler pushes engine events to connected suppliers so the
// app can refresh its feed without polling.
type SupplierEventsHandler struct {
	broker    *events.Broker
	directory suppliers.Directory
	logger    *logging.Logger
	heartbeat time.Duration
	buffer    int
}

func NewSupplierEventsHandler(broker *events.Broker, directory suppliers.Directory, logger *logging.Logger) *SupplierEventsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SupplierEventsHandler{
		broker:    broker,
		directory: directory,
		logger:    logger,
		heartbeat: 30 * time.Second,
		buffer:    32,
	}
}

// Stream handles GET /supplier/events
func (h *SupplierEventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := requireSupplier(w, r)
	if !ok {
		return
	}
	// Checked once per connection; a deactivated supplier must reconnect.
	if _, err := suppliers.RequireActive(r.Context(), h.directory, supplierID); err != nil {
		writeError(w, r, h.logger, "supplier events", err, "supplier_id", supplierID)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, supplierID)
	}).ServeHTTP(w, r)
}

func (h *SupplierEventsHandler) serveWS(conn *websocket.Conn, supplierID string) {
	sub, cancel := h.broker.Subscribe(h.buffer)
	defer cancel()

	if err := websocket.JSON.Send(conn, StreamMessage{Type: "ready"}); err != nil {
		return
	}
	h.logger.Info("supplier events: connection opened", "supplier_id", supplierID)

	closed := make(chan struct{})
	pongs := make(chan struct{}, 1)
	go func() {
		defer close(closed)
		for {
			var msg inboundMessage
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				h.logger.Debug("supplier events: connection closed", "supplier_id", supplierID, "error", err)
				return
			}
			if msg.Type == "ping" {
				select {
				case pongs <- struct{}{}:
				default:
				}
			}
		}
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		var out StreamMessage
		select {
		case <-closed:
			return
		case evt, ok := <-sub:
			if !ok {
				return
			}
			visible, show := visibleTo(evt, supplierID)
			if !show {
				continue
			}
			out = StreamMessage{Type: "event", Event: &visible}
		case <-pongs:
			out = StreamMessage{Type: "pong"}
		case <-ticker.C:
			out = StreamMessage{Type: "heartbeat"}
		}
		if err := websocket.JSON.Send(conn, out); err != nil {
			return
		}
	}
}

// visibleTo hides other suppliers' identities and drops their private
// interaction updates.
func visibleTo(evt events.Event, supplierID string) (events.Event, bool) {
	if evt.SupplierID == "" || evt.SupplierID == supplierID {
		return evt, true
	}
	if evt.Type == events.TypeInteractionUpdated {
		return events.Event{}, false
	}
	evt.SupplierID = ""
	return evt, true
}
