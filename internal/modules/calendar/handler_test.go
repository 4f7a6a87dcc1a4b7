package calendar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"courtbook/internal/middleware"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRoutes(t *testing.T) {
	svc, f, db := newService(t)
	gin.SetMode(gin.TestMode)
	tokens := jwt.New("test-secret", time.Hour)

	r := gin.New()
	r.Use(middleware.Tenant(repository.NewVenueRepository(db), tokens, "courtbook.test", logger.Discard()))
	vendor := r.Group("/api/v1", middleware.VendorOnly())
	NewHandler(svc).RegisterRoutes(vendor)

	token, err := tokens.GenerateToken(f.Vendor.ID, "vendor")
	require.NoError(t, err)
	venue := strconv.FormatInt(f.Venue.ID, 10)

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("view", func(t *testing.T) {
		w := get("/api/v1/vendor/calendar?venueId="+venue+"&from=2025-01-01", token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res struct {
			Data View `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Data.Days, 1)
		assert.Len(t, res.Data.Days[0].Blocks, 4)
	})

	t.Run("ics", func(t *testing.T) {
		w := get("/api/v1/vendor/calendar.ics?venueId="+venue+"&from=2025-01-01", token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
		assert.Contains(t, w.Body.String(), "BEGIN:VEVENT")
	})

	t.Run("requires vendor", func(t *testing.T) {
		w := get("/api/v1/vendor/calendar?venueId="+venue, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other vendor's venue", func(t *testing.T) {
		other, err := tokens.GenerateToken(f.OtherVendor.ID, "vendor")
		require.NoError(t, err)
		w := get("/api/v1/vendor/calendar?venueId="+venue, other)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad range", func(t *testing.T) {
		w := get("/api/v1/vendor/calendar?venueId="+venue+"&from=2025-01-05&to=2025-01-01", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
