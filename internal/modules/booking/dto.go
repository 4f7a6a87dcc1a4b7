package booking

import (
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/venuetime"
)

// CreateBookingRequest keeps every field optional so presence can be checked
// in a fixed order by the service.
type CreateBookingRequest struct {
	VenueID       *int64   `json:"venueId"`
	CourtID       *int64   `json:"courtId"`
	CustomerID    *int64   `json:"customerId"`
	StartTime     *string  `json:"startTime"`
	EndTime       *string  `json:"endTime"`
	Duration      *int     `json:"duration"`
	TotalAmount   *float64 `json:"totalAmount"`
	BookingType   string   `json:"bookingType"`
	Status        string   `json:"status"`
	CustomerName  string   `json:"customerName"`
	CustomerPhone string   `json:"customerPhone"`
	CustomerEmail string   `json:"customerEmail" validate:"omitempty,email"`
	Notes         string   `json:"notes"`
}

type UpdateBookingRequest struct {
	StartTime   *string  `json:"startTime"`
	EndTime     *string  `json:"endTime"`
	Status      *string  `json:"status"`
	TotalAmount *float64 `json:"totalAmount"`
	CourtID     *int64   `json:"courtId"`
	Notes       *string  `json:"notes"`
}

// onlyNotes reports whether the patch leaves everything but notes alone.
func (r UpdateBookingRequest) onlyNotes() bool {
	return r.StartTime == nil && r.EndTime == nil && r.Status == nil &&
		r.TotalAmount == nil && r.CourtID == nil
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ListQuery struct {
	VenueID     int64  `form:"venueId"`
	CourtID     int64  `form:"courtId"`
	CustomerID  int64  `form:"customerId"`
	Status      string `form:"status"`
	BookingType string `form:"bookingType"`
	StartDate   string `form:"startDate"`
	EndDate     string `form:"endDate"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

type ConvertRequest struct {
	Local   *string `json:"local"`
	Instant *string `json:"instant"`
}

type ConvertResponse struct {
	VenueID  int64     `json:"venueId"`
	Timezone string    `json:"timezone"`
	Local    string    `json:"local"`
	Instant  time.Time `json:"instant"`
}

type VenueSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Timezone     string `json:"timezone"`
	CurrencyCode string `json:"currencyCode"`
	City         string `json:"city,omitempty"`
}

type VendorSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CourtSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID                 int64          `json:"id"`
	VenueID            int64          `json:"venueId"`
	VendorID           int64          `json:"vendorId"`
	CourtID            *int64         `json:"courtId"`
	CustomerID         *int64         `json:"customerId"`
	StartTime          time.Time      `json:"startTime"`
	EndTime            time.Time      `json:"endTime"`
	LocalStartTime     string         `json:"localStartTime"`
	LocalEndTime       string         `json:"localEndTime"`
	Duration           int            `json:"duration"`
	TotalAmount        float64        `json:"totalAmount"`
	Status             string         `json:"status"`
	BookingType        string         `json:"bookingType"`
	CustomerName       string         `json:"customerName,omitempty"`
	CustomerPhone      string         `json:"customerPhone,omitempty"`
	CustomerEmail      string         `json:"customerEmail,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	CancellationReason string         `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time     `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	Venue              *VenueSummary  `json:"venue,omitempty"`
	Vendor             *VendorSummary `json:"vendor,omitempty"`
	Court              *CourtSummary  `json:"court,omitempty"`
}

func NewBookingResponse(b *domain.Booking) BookingResponse {
	out := BookingResponse{
		ID:                 b.ID,
		VenueID:            b.VenueID,
		VendorID:           b.VendorID,
		CourtID:            b.CourtID,
		CustomerID:         b.CustomerID,
		StartTime:          b.StartTime.UTC(),
		EndTime:            b.EndTime.UTC(),
		Duration:           b.Duration,
		TotalAmount:        b.TotalAmount,
		Status:             string(b.Status),
		BookingType:        string(b.BookingType),
		CustomerName:       b.CustomerName,
		CustomerPhone:      b.CustomerPhone,
		CustomerEmail:      b.CustomerEmail,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	zone := ""
	if b.Venue != nil {
		zone = b.Venue.Timezone
		out.Venue = &VenueSummary{
			ID:           b.Venue.ID,
			Name:         b.Venue.Name,
			Timezone:     b.Venue.Timezone,
			CurrencyCode: b.Venue.CurrencyCode,
			City:         b.Venue.City,
		}
	}
	out.LocalStartTime = venuetime.ToLocal(b.StartTime, zone)
	out.LocalEndTime = venuetime.ToLocal(b.EndTime, zone)

	if b.Vendor != nil {
		out.Vendor = &VendorSummary{ID: b.Vendor.ID, Name: b.Vendor.Name, Slug: b.Vendor.Slug}
	}
	if b.Court != nil {
		out.Court = &CourtSummary{ID: b.Court.ID, Name: b.Court.Name}
	}
	return out
}

// forScope hides customer contact details from callers outside any tenant.
func (r BookingResponse) forScope(scope domain.TenantScope) BookingResponse {
	if !scope.IsScoped() {
		r.CustomerPhone = ""
		r.CustomerEmail = ""
	}
	return r
}

type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// AppliedFilters echoes the normalized filters back to the client.
type AppliedFilters struct {
	VenueID     int64      `json:"venueId,omitempty"`
	CourtID     int64      `json:"courtId,omitempty"`
	CustomerID  int64      `json:"customerId,omitempty"`
	Status      string     `json:"status,omitempty"`
	BookingType string     `json:"bookingType,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

type ListResult struct {
	Bookings   []BookingResponse `json:"bookings"`
	Pagination Pagination        `json:"pagination"`
	Filters    AppliedFilters    `json:"filters"`
}
