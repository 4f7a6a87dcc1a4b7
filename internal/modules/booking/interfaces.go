package booking

import (
	"context"

	"courtbook/internal/domain"
	"courtbook/internal/modules/availability"
	"courtbook/internal/pkg/timerange"
	"courtbook/internal/repository"
)

type BookingRepository interface {
	CreateChecked(ctx context.Context, b *domain.Booking, check repository.SlotCheck) error
	SaveChecked(ctx context.Context, b *domain.Booking, check repository.SlotCheck) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilters) ([]domain.Booking, int64, error)
}

type VenueRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	GetCourt(ctx context.Context, id int64) (*domain.Court, error)
}

// SlotChecker builds the availability check that runs inside the write transaction.
type SlotChecker interface {
	SlotCheck(venue *domain.Venue, t availability.Target, rng timerange.Range, excludeBookingID int64) repository.SlotCheck
}
