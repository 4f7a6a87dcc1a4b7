package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
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

type spyCache struct {
	invalidated []int64
}

func (s *spyCache) InvalidateVenue(_ context.Context, id int64) error {
	s.invalidated = append(s.invalidated, id)
	return nil
}

func newService(t *testing.T) (*Service, testsupport.Fixture, *spyCache, *repository.VenueRepository) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "Asia/Kolkata")
	repo := repository.NewVenueRepository(db)
	spy := &spyCache{}

	svc := NewService(repo, spy, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 4, 30, 0, 0, time.UTC) }
	return svc, f, spy, repo
}

func TestListAndGetVenues(t *testing.T) {
	svc, f, _, _ := newService(t)
	ctx := context.Background()
	scope := domain.TenantScope{VendorID: f.Vendor.ID}

	venues, err := svc.ListVenues(ctx, scope)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "Acme Center", venues[0].Name)
	assert.Len(t, venues[0].Courts, 2)
	assert.Equal(t, "2025-01-01T10:00", venues[0].LocalNow)

	_, err = svc.ListVenues(ctx, domain.TenantScope{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetVenue(ctx, scope, f.OtherVenue.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetVenue(ctx, domain.TenantScope{}, f.OtherVenue.ID)
	require.NoError(t, err)
	assert.Equal(t, "UTC", got.Timezone)
}

func TestCreateVenue(t *testing.T) {
	svc, f, _, repo := newService(t)
	ctx := context.Background()
	scope := domain.TenantScope{VendorID: f.Vendor.ID}

	out, err := svc.CreateVenue(ctx, scope, CreateVenueRequest{
		Name:         " Acme North ",
		Timezone:     "America/New_York",
		CurrencyCode: "usd",
		Country:      "US",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme North", out.Name)
	assert.Equal(t, "USD", out.CurrencyCode)
	assert.Equal(t, "06:00", out.OpenTime)
	assert.Equal(t, "23:00", out.CloseTime)

	stored, err := repo.GetByID(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Vendor.ID, stored.VendorID)

	tests := []struct {
		name  string
		req   CreateVenueRequest
		field string
	}{
		{"missing name", CreateVenueRequest{Timezone: "UTC", CurrencyCode: "USD"}, "name"},
		{"unknown zone", CreateVenueRequest{Name: "X", Timezone: "Mars/Olympus", CurrencyCode: "USD"}, "timezone"},
		{"bad currency", CreateVenueRequest{Name: "X", Timezone: "UTC", CurrencyCode: "XYZW"}, "currencyCode"},
		{"bad clock", CreateVenueRequest{Name: "X", Timezone: "UTC", CurrencyCode: "USD", OpenTime: "6am"}, "openTime"},
		{"closes before open", CreateVenueRequest{Name: "X", Timezone: "UTC", CurrencyCode: "USD", OpenTime: "22:00", CloseTime: "08:00"}, "closeTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateVenue(ctx, scope, tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	_, err = svc.CreateVenue(ctx, domain.TenantScope{}, CreateVenueRequest{Name: "X", Timezone: "UTC", CurrencyCode: "USD"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateCourtInvalidatesCache(t *testing.T) {
	svc, f, spy, repo := newService(t)
	ctx := context.Background()

	court, err := svc.CreateCourt(ctx, domain.TenantScope{VendorID: f.Vendor.ID}, f.Venue.ID, CreateCourtRequest{Name: "Court C", PricePerHour: 900})
	require.NoError(t, err)
	assert.Equal(t, []int64{f.Venue.ID}, spy.invalidated)

	venue, err := repo.GetByID(ctx, f.Venue.ID)
	require.NoError(t, err)
	assert.Len(t, venue.Courts, 3)
	assert.NotZero(t, court.ID)

	_, err = svc.CreateCourt(ctx, domain.TenantScope{VendorID: f.OtherVendor.ID}, f.Venue.ID, CreateCourtRequest{Name: "Sneaky"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerRoutes(t *testing.T) {
	svc, f, _, repo := newService(t)
	gin.SetMode(gin.TestMode)
	tokens := jwt.New("test-secret", time.Hour)

	r := gin.New()
	r.Use(middleware.Tenant(repo, tokens, "courtbook.test", logger.Discard()))
	api := r.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api, api.Group("", middleware.VendorOnly()))

	send := func(method, path, host, token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Host = host
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodGet, "/api/v1/venues", "acme.courtbook.test", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"Acme Center"`)
	assert.NotContains(t, w.Body.String(), `"Rival Hall"`)

	assert.Equal(t, http.StatusForbidden, send(http.MethodGet, "/api/v1/venues", "courtbook.test", "", nil).Code)

	path := "/api/v1/venues/" + strconv.FormatInt(f.Venue.ID, 10)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, path, "acme.courtbook.test", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, send(http.MethodGet, path, "rival.courtbook.test", "", nil).Code)

	body := map[string]any{"name": "Court C", "pricePerHour": 650}
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodPost, path+"/courts", "acme.courtbook.test", "", body).Code)

	token, err := tokens.GenerateToken(f.Vendor.ID, "vendor")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, send(http.MethodPost, path+"/courts", "", token, body).Code)

	w = send(http.MethodPost, "/api/v1/venues", "", token, map[string]any{"name": "Bad", "timezone": "Nowhere/Land", "currencyCode": "INR"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"timezone"`)
}
