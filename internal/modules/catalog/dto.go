package catalog

import (
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/venuetime"
)

type CreateVenueRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Timezone     string `json:"timezone" validate:"required,timezone"`
	CurrencyCode string `json:"currencyCode" validate:"required,iso4217"`
	Address      string `json:"address" validate:"max=255"`
	City         string `json:"city" validate:"max=120"`
	Country      string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	OpenTime     string `json:"openTime" validate:"omitempty,datetime=15:04"`
	CloseTime    string `json:"closeTime" validate:"omitempty,datetime=15:04"`
}

type CreateCourtRequest struct {
	Name         string  `json:"name" validate:"required,max=80"`
	SportID      int64   `json:"sportId" validate:"gte=0"`
	FormatID     int64   `json:"formatId" validate:"gte=0"`
	PricePerHour float64 `json:"pricePerHour" validate:"gte=0"`
}

type CourtResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	SportID      int64   `json:"sportId,omitempty"`
	FormatID     int64   `json:"formatId,omitempty"`
	PricePerHour float64 `json:"pricePerHour"`
}

type VenueResponse struct {
	ID           int64           `json:"id"`
	VendorID     int64           `json:"vendorId"`
	Name         string          `json:"name"`
	Timezone     string          `json:"timezone"`
	CurrencyCode string          `json:"currencyCode"`
	Address      string          `json:"address,omitempty"`
	City         string          `json:"city,omitempty"`
	Country      string          `json:"country,omitempty"`
	OpenTime     string          `json:"openTime"`
	CloseTime    string          `json:"closeTime"`
	LocalNow     string          `json:"localNow"`
	Courts       []CourtResponse `json:"courts,omitempty"`
}

func newCourtResponse(c *domain.Court) CourtResponse {
	return CourtResponse{
		ID:           c.ID,
		Name:         c.Name,
		SportID:      c.SportID,
		FormatID:     c.FormatID,
		PricePerHour: c.PricePerHour,
	}
}

func newVenueResponse(v *domain.Venue, now time.Time) VenueResponse {
	out := VenueResponse{
		ID:           v.ID,
		VendorID:     v.VendorID,
		Name:         v.Name,
		Timezone:     v.Timezone,
		CurrencyCode: v.CurrencyCode,
		Address:      v.Address,
		City:         v.City,
		Country:      v.Country,
		OpenTime:     v.OpenTime,
		CloseTime:    v.CloseTime,
		LocalNow:     venuetime.ToLocal(now, v.Timezone),
	}
	for i := range v.Courts {
		out.Courts = append(out.Courts, newCourtResponse(&v.Courts[i]))
	}
	return out
}
