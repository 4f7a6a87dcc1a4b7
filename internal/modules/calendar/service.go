package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/timerange"
	"courtbook/internal/pkg/venuetime"
	"courtbook/internal/repository"
)

const maxRangeDays = 31

var (
	ErrValidation    = errors.New("validation error")
	ErrVenueNotFound = errors.New("venue not found")
	ErrForbidden     = errors.New("forbidden")
)

type BookingRepository interface {
	ForVenueRange(ctx context.Context, venueID int64, from, to time.Time) ([]domain.Booking, error)
}

type VenueRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
}

type Query struct {
	VenueID   int64  `form:"venueId"`
	From      string `form:"from"`
	To        string `form:"to"`
	HourWidth int    `form:"hourWidth"`
}

type VenueInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Timezone  string `json:"timezone"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

type CourtInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type View struct {
	Venue  VenueInfo   `json:"venue"`
	Courts []CourtInfo `json:"courts"`
	From   time.Time   `json:"from"`
	To     time.Time   `json:"to"`
	Days   []Day       `json:"days"`
}

type Service struct {
	bookings BookingRepository
	venues   VenueRepository
	now      func() time.Time
}

func NewService(bookings BookingRepository, venues VenueRepository) *Service {
	return &Service{bookings: bookings, venues: venues, now: time.Now}
}

func (s *Service) View(ctx context.Context, scope domain.TenantScope, q Query) (*View, error) {
	venue, rng, err := s.resolve(ctx, scope, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.bookings.ForVenueRange(ctx, venue.ID, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}

	grid := Grid{HourWidthPx: float64(q.HourWidth)}
	if h, ok := clockHour(venue.OpenTime); ok {
		grid.StartHour = h
	}
	if h, ok := clockHour(venue.CloseTime); ok && h > grid.StartHour {
		grid.EndHour = h
		if venue.CloseTime[3:] != "00" {
			grid.EndHour++
		}
	}

	blocks := Layout(rows, venue.Courts, rng, venue.Timezone, grid)

	view := &View{
		Venue: VenueInfo{
			ID:        venue.ID,
			Name:      venue.Name,
			Timezone:  venue.Timezone,
			OpenTime:  venue.OpenTime,
			CloseTime: venue.CloseTime,
		},
		Courts: make([]CourtInfo, 0, len(venue.Courts)),
		From:   rng.Start,
		To:     rng.End,
		Days:   GroupByDay(blocks, rng, venue.Timezone),
	}
	for _, c := range venue.Courts {
		view.Courts = append(view.Courts, CourtInfo{ID: c.ID, Name: c.Name})
	}
	return view, nil
}

// resolve loads the caller's venue and turns from/to into a UTC window. Bare
// dates are venue-local days and to is inclusive.
func (s *Service) resolve(ctx context.Context, scope domain.TenantScope, q Query) (*domain.Venue, timerange.Range, error) {
	if !scope.IsScoped() {
		return nil, timerange.Range{}, ErrForbidden
	}
	if q.VenueID <= 0 {
		return nil, timerange.Range{}, fmt.Errorf("%w: venueId is required", ErrValidation)
	}

	venue, err := s.venues.GetByID(ctx, q.VenueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, timerange.Range{}, ErrVenueNotFound
		}
		return nil, timerange.Range{}, err
	}
	if !scope.Allows(venue.VendorID) {
		return nil, timerange.Range{}, ErrVenueNotFound
	}

	today := venuetime.LocalDate(s.now(), venue.Timezone)
	from, err := bound(q.From, today, venue.Timezone, false)
	if err != nil {
		return nil, timerange.Range{}, fmt.Errorf("%w: from: %v", ErrValidation, err)
	}
	toDefault := q.From
	if toDefault == "" {
		toDefault = today
	}
	to, err := bound(q.To, toDefault, venue.Timezone, true)
	if err != nil {
		return nil, timerange.Range{}, fmt.Errorf("%w: to: %v", ErrValidation, err)
	}

	if !to.After(from) {
		return nil, timerange.Range{}, fmt.Errorf("%w: to must be after from", ErrValidation)
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour+time.Hour {
		return nil, timerange.Range{}, fmt.Errorf("%w: range exceeds %d days", ErrValidation, maxRangeDays)
	}
	return venue, timerange.New(from, to), nil
}

func bound(v, fallback, zone string, end bool) (time.Time, error) {
	if v == "" {
		v = fallback
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(venuetime.DateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		d = d.AddDate(0, 0, 1)
	}
	return venuetime.FromLocal(d.Format(venuetime.DateLayout)+"T00:00", zone)
}

func clockHour(hhmm string) (int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, false
	}
	return t.Hour(), true
}
