package availability

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/middleware"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/repository"
	"courtbook/internal/testsupport"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "Asia/Kolkata")
	venues := repository.NewVenueRepository(db)

	// 10:00-11:00 Kolkata on court A.
	require.NoError(t, db.Create(&domain.Booking{
		VenueID:   f.Venue.ID,
		VendorID:  f.Vendor.ID,
		CourtID:   &f.CourtA.ID,
		StartTime: time.Date(2025, 1, 1, 4, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 1, 1, 5, 30, 0, 0, time.UTC),
		Status:    domain.BookingConfirmed,
	}).Error)

	gin.SetMode(gin.TestMode)
	tokens := jwt.New("test-secret", time.Hour)
	r := gin.New()
	r.Use(middleware.Tenant(venues, tokens, "courtbook.test", logger.Discard()))
	NewHandler(NewChecker(repository.NewSlotStore(db), venues, nil), venues).RegisterRoutes(r.Group("/api/v1"))

	get := func(path, host string) (*httptest.ResponseRecorder, json.RawMessage) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if host != "" {
			req.Host = host
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &env)
		return w, env.Data
	}

	check := func(courtID int64, start, end string) bool {
		t.Helper()
		path := fmt.Sprintf("/api/v1/venues/%d/availability?start=%s&end=%s", f.Venue.ID, start, end)
		if courtID > 0 {
			path += fmt.Sprintf("&courtId=%d", courtID)
		}
		w, data := get(path, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res checkResponse
		require.NoError(t, json.Unmarshal(data, &res))
		return res.Available
	}

	t.Run("availability", func(t *testing.T) {
		assert.False(t, check(f.CourtA.ID, "2025-01-01T05:00:00Z", "2025-01-01T06:00:00Z"))
		assert.True(t, check(f.CourtA.ID, "2025-01-01T05:30:00Z", "2025-01-01T06:30:00Z"))
		assert.True(t, check(f.CourtB.ID, "2025-01-01T05:00:00Z", "2025-01-01T06:00:00Z"))
		assert.False(t, check(0, "2025-01-01T05:00:00Z", "2025-01-01T06:00:00Z"))
	})

	t.Run("availability validation", func(t *testing.T) {
		w, _ := get(fmt.Sprintf("/api/v1/venues/%d/availability?start=tomorrow&end=2025-01-01T06:00:00Z", f.Venue.ID), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = get(fmt.Sprintf("/api/v1/venues/%d/availability?start=2025-01-01T05:00:00Z&end=2025-01-01T06:00:00Z&courtId=%d", f.Venue.ID, f.OtherCourt.ID), "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = get("/api/v1/venues/9999/availability?start=2025-01-01T05:00:00Z&end=2025-01-01T06:00:00Z", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("slots", func(t *testing.T) {
		w, data := get(fmt.Sprintf("/api/v1/courts/%d/slots?date=2025-01-01", f.CourtA.ID), "acme.courtbook.test")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var day DaySlots
		require.NoError(t, json.Unmarshal(data, &day))
		require.Len(t, day.Slots, 17)
		assert.Equal(t, "2025-01-01T06:00", day.Slots[0].LocalStart)
		assert.False(t, day.Slots[4].Available)
		assert.True(t, day.Slots[5].Available)
	})

	t.Run("slots outside tenant", func(t *testing.T) {
		w, _ := get(fmt.Sprintf("/api/v1/courts/%d/slots?date=2025-01-01", f.CourtA.ID), "rival.courtbook.test")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("slots bad input", func(t *testing.T) {
		w, _ := get(fmt.Sprintf("/api/v1/courts/%d/slots?date=01/01/2025", f.CourtA.ID), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = get(fmt.Sprintf("/api/v1/courts/%d/slots?date=2025-01-01&slotMinutes=abc", f.CourtA.ID), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
