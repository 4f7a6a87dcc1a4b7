// Package live pushes booking changes to connected vendor dashboards over
// websockets.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/events"
	"courtbook/internal/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Message is what a dashboard receives for each booking event.
type Message struct {
	Type       events.Type `json:"type"`
	VenueID    int64       `json:"venueId"`
	Booking    *Booking    `json:"booking,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

type Booking struct {
	ID           int64     `json:"id"`
	VenueID      int64     `json:"venueId"`
	CourtID      *int64    `json:"courtId"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Status       string    `json:"status"`
	BookingType  string    `json:"bookingType"`
	CustomerName string    `json:"customerName,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

func newBooking(b *domain.Booking) *Booking {
	if b == nil {
		return nil
	}
	return &Booking{
		ID:           b.ID,
		VenueID:      b.VenueID,
		CourtID:      b.CourtID,
		StartTime:    b.StartTime.UTC(),
		EndTime:      b.EndTime.UTC(),
		Status:       string(b.Status),
		BookingType:  string(b.BookingType),
		CustomerName: b.CustomerName,
		Notes:        b.Notes,
	}
}

type client struct {
	vendorID int64
	conn     *websocket.Conn
	send     chan []byte
}

// Hub tracks dashboard connections per vendor. It implements
// events.Publisher so it can sit next to Kafka in events.Multi.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
	closed  bool
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{clients: make(map[int64]map[*client]struct{}), log: log}
}

// Publish delivers ev to every connection of its vendor. Events without a
// vendor (sweeper totals) are not routable and are dropped.
func (h *Hub) Publish(_ context.Context, ev events.BookingEvent) error {
	if ev.VendorID <= 0 {
		return nil
	}
	data, err := json.Marshal(Message{
		Type:       ev.Type,
		VenueID:    ev.VenueID,
		Booking:    newBooking(ev.Booking),
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.VendorID] {
		select {
		case c.send <- data:
		default:
			h.log.Warn("live: slow client skipped", slog.Int64("vendor_id", c.vendorID))
		}
	}
	return nil
}

// Connections returns how many dashboards of vendorID are connected.
func (h *Hub) Connections(vendorID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[vendorID])
}

// Serve runs conn until the client disconnects or the hub closes.
func (h *Hub) Serve(conn *websocket.Conn, vendorID int64) {
	c := &client{vendorID: vendorID, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for vendorID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, vendorID)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.vendorID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.vendorID] = set
	}
	set[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.vendorID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.vendorID)
	}
	close(c.send)
}

// readPump only services control frames; dashboards never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("live: connection dropped", slog.Int64("vendor_id", c.vendorID), logger.Err(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
