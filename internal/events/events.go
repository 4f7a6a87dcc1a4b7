// Package events carries booking lifecycle notifications out of the service.
package events

import (
	"context"
	"errors"
	"time"

	"courtbook/internal/domain"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingUpdated   Type = "booking.updated"
	BookingCancelled Type = "booking.cancelled"
	BookingExpired   Type = "booking.expired"
	BookingCompleted Type = "booking.completed"
)

type BookingEvent struct {
	Type       Type            `json:"type"`
	VendorID   int64           `json:"vendor_id"`
	VenueID    int64           `json:"venue_id"`
	Booking    *domain.Booking `json:"booking,omitempty"`
	Count      int64           `json:"count,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewBookingEvent(t Type, b *domain.Booking) BookingEvent {
	return BookingEvent{
		Type:       t,
		VendorID:   b.VendorID,
		VenueID:    b.VenueID,
		Booking:    b,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
}

type nop struct{}

func (nop) Publish(context.Context, BookingEvent) error { return nil }

// Nop discards every event.
func Nop() Publisher { return nop{} }

type multi []Publisher

// Multi fans an event out to every publisher and joins their errors.
func Multi(pubs ...Publisher) Publisher {
	out := make(multi, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m multi) Publish(ctx context.Context, ev BookingEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
