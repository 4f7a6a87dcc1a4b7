package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/events"
	"courtbook/internal/middleware"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noVendors struct{}

func (noVendors) VendorBySlug(context.Context, string) (*domain.Vendor, error) {
	return nil, repository.ErrNotFound
}

func newServer(t *testing.T, hub *Hub) (*httptest.Server, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := jwt.New("test-secret", time.Hour)

	r := gin.New()
	r.Use(middleware.Tenant(noVendors{}, tokens, "courtbook.test", logger.Discard()))
	NewHandler(hub, nil).RegisterRoutes(r.Group("/api/v1", middleware.VendorOnly()))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tokens
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/vendor/live?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubRoutesEventsByVendor(t *testing.T) {
	hub := NewHub(nil)
	srv, tokens := newServer(t, hub)

	acme, _ := tokens.GenerateToken(1, "vendor")
	rival, _ := tokens.GenerateToken(2, "staff")
	acmeConn := dial(t, srv, acme)
	rivalConn := dial(t, srv, rival)

	require.Eventually(t, func() bool {
		return hub.Connections(1) == 1 && hub.Connections(2) == 1
	}, 2*time.Second, 10*time.Millisecond)

	court := int64(3)
	b := &domain.Booking{
		ID:        42,
		VendorID:  1,
		VenueID:   7,
		CourtID:   &court,
		StartTime: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC),
		Status:    domain.BookingConfirmed,
	}
	require.NoError(t, hub.Publish(context.Background(), events.NewBookingEvent(events.BookingCreated, b)))

	_ = acmeConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := acmeConn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, events.BookingCreated, msg.Type)
	assert.Equal(t, int64(7), msg.VenueID)
	require.NotNil(t, msg.Booking)
	assert.Equal(t, int64(42), msg.Booking.ID)
	assert.Equal(t, "CONFIRMED", msg.Booking.Status)

	_ = rivalConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = rivalConn.ReadMessage()
	assert.Error(t, err, "rival must not see acme bookings")
}

func TestHubDropsVendorlessEvents(t *testing.T) {
	hub := NewHub(nil)
	assert.NoError(t, hub.Publish(context.Background(), events.BookingEvent{Type: events.BookingExpired, Count: 3}))
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv, tokens := newServer(t, hub)

	token, _ := tokens.GenerateToken(1, "vendor")
	conn := dial(t, srv, token)
	require.Eventually(t, func() bool { return hub.Connections(1) == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = conn.Close()
	require.Eventually(t, func() bool { return hub.Connections(1) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil)
	srv, tokens := newServer(t, hub)

	token, _ := tokens.GenerateToken(1, "vendor")
	conn := dial(t, srv, token)
	require.Eventually(t, func() bool { return hub.Connections(1) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Connections(1))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestConnectRequiresVendorToken(t *testing.T) {
	hub := NewHub(nil)
	srv, _ := newServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/vendor/live"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
