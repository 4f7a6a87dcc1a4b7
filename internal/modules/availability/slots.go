package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/timerange"
	"courtbook/internal/pkg/venuetime"
)

var ErrInvalidDate = errors.New("invalid date")

const DefaultSlotMinutes = 60

type Slot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	LocalStart string    `json:"localStart"`
	LocalEnd   string    `json:"localEnd"`
	Available  bool      `json:"available"`
}

type DaySlots struct {
	CourtID  int64  `json:"courtId"`
	VenueID  int64  `json:"venueId"`
	Date     string `json:"date"`
	Timezone string `json:"timezone"`
	Open     string `json:"open"`
	Close    string `json:"close"`
	Slots    []Slot `json:"slots"`
}

// FreeSlots splits the venue opening hours of date (venue-local, YYYY-MM-DD)
// into fixed slots and marks the ones a new booking could take.
func (c *Checker) FreeSlots(ctx context.Context, courtID int64, date string, slotMinutes int) (*DaySlots, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if _, err := time.Parse(venuetime.DateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}

	court, err := c.venues.GetCourt(ctx, courtID)
	if err != nil {
		return nil, err
	}
	venue, err := c.venues.GetByID(ctx, court.VenueID)
	if err != nil {
		return nil, err
	}

	out := &DaySlots{
		CourtID:  court.ID,
		VenueID:  venue.ID,
		Date:     date,
		Timezone: venue.Timezone,
		Open:     venue.OpenTime,
		Close:    venue.CloseTime,
		Slots:    []Slot{},
	}

	window, err := openingWindow(venue, date)
	if err != nil {
		return nil, err
	}
	if window.IsEmpty() {
		return out, nil
	}

	busy, err := c.busyRanges(ctx, venue, court.ID, window)
	if err != nil {
		return nil, err
	}

	step := time.Duration(slotMinutes) * time.Minute
	for start := window.Start; !start.Add(step).After(window.End); start = start.Add(step) {
		slot := timerange.New(start, start.Add(step))
		out.Slots = append(out.Slots, Slot{
			Start:      slot.Start,
			End:        slot.End,
			LocalStart: venuetime.ToLocal(slot.Start, venue.Timezone),
			LocalEnd:   venuetime.ToLocal(slot.End, venue.Timezone),
			Available:  !timerange.AnyOverlap(slot, busy),
		})
	}
	return out, nil
}

func openingWindow(venue *domain.Venue, date string) (timerange.Range, error) {
	open, err := venuetime.FromLocal(date+"T"+venue.OpenTime, venue.Timezone)
	if err != nil {
		return timerange.Range{}, fmt.Errorf("venue %d open time: %w", venue.ID, err)
	}
	closing, err := venuetime.FromLocal(date+"T"+venue.CloseTime, venue.Timezone)
	if err != nil {
		return timerange.Range{}, fmt.Errorf("venue %d close time: %w", venue.ID, err)
	}
	if !closing.After(open) {
		return timerange.New(open, open), nil
	}
	return timerange.New(open, closing), nil
}

func (c *Checker) busyRanges(ctx context.Context, venue *domain.Venue, courtID int64, window timerange.Range) ([]timerange.Range, error) {
	bookings, err := c.reader.ConfirmedOverlapping(ctx, venue.ID, &courtID, window, 0)
	if err != nil {
		return nil, err
	}
	busy := make([]timerange.Range, 0, len(bookings))
	for _, b := range bookings {
		busy = append(busy, timerange.New(b.StartTime, b.EndTime))
	}

	blocked, err := c.conflictRanges(ctx, c.reader, venue, &courtID, window)
	if err != nil {
		return nil, err
	}
	return timerange.Merge(append(busy, blocked...)), nil
}
