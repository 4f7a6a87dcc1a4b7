package availability

import (
	"context"
	"log/slog"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/pkg/timerange"
	"courtbook/internal/pkg/venuetime"
	"courtbook/internal/repository"
)

// VenueLookup resolves the venue a check runs against.
type VenueLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	GetCourt(ctx context.Context, id int64) (*domain.Court, error)
}

// Target is the resource being booked. A nil CourtID means the whole venue.
type Target struct {
	VenueID int64
	CourtID *int64
}

type Checker struct {
	reader repository.SlotReader
	venues VenueLookup
	log    *slog.Logger
}

func NewChecker(reader repository.SlotReader, venues VenueLookup, log *slog.Logger) *Checker {
	if log == nil {
		log = logger.Discard()
	}
	return &Checker{reader: reader, venues: venues, log: log}
}

// IsAvailable reports whether [start, end) is free for t. Any lookup failure
// yields false.
func (c *Checker) IsAvailable(ctx context.Context, t Target, start, end time.Time, excludeBookingID int64) bool {
	rng := timerange.New(start, end)
	if !rng.Valid() {
		return false
	}
	if rng.IsEmpty() {
		return true
	}

	venue, err := c.venues.GetByID(ctx, t.VenueID)
	if err != nil {
		c.log.Warn("availability: venue lookup failed",
			slog.Int64("venue_id", t.VenueID), logger.Err(err))
		return false
	}
	return c.check(ctx, c.reader, venue, t, rng, excludeBookingID)
}

// SlotCheck binds a check to an already loaded venue so it can run against the
// reader of a write transaction.
func (c *Checker) SlotCheck(venue *domain.Venue, t Target, rng timerange.Range, excludeBookingID int64) repository.SlotCheck {
	return func(ctx context.Context, reader repository.SlotReader) bool {
		if !rng.Valid() {
			return false
		}
		if rng.IsEmpty() {
			return true
		}
		return c.check(ctx, reader, venue, t, rng, excludeBookingID)
	}
}

func (c *Checker) check(ctx context.Context, reader repository.SlotReader, venue *domain.Venue, t Target, rng timerange.Range, excludeBookingID int64) bool {
	log := c.log.With(slog.Int64("venue_id", venue.ID))

	bookings, err := reader.ConfirmedOverlapping(ctx, venue.ID, t.CourtID, rng, excludeBookingID)
	if err != nil {
		log.Error("availability: booking query failed", logger.Err(err))
		return false
	}
	for _, b := range bookings {
		if b.ID == excludeBookingID && excludeBookingID > 0 {
			continue
		}
		if !blocksTarget(b.CourtID, t.CourtID) {
			continue
		}
		if timerange.New(b.StartTime, b.EndTime).Overlaps(rng) {
			return false
		}
	}

	busy, err := c.conflictRanges(ctx, reader, venue, t.CourtID, rng)
	if err != nil {
		log.Error("availability: conflict query failed", logger.Err(err))
		return false
	}
	return !timerange.AnyOverlap(rng, busy)
}

func (c *Checker) conflictRanges(ctx context.Context, reader repository.SlotReader, venue *domain.Venue, courtID *int64, window timerange.Range) ([]timerange.Range, error) {
	conflicts, err := reader.ActiveConflicts(ctx, venue.ID, courtID, window)
	if err != nil {
		return nil, err
	}

	loc, _ := venuetime.Location(venue.Timezone)
	var out []timerange.Range
	for _, cf := range conflicts {
		if !blocksTarget(cf.CourtID, courtID) {
			continue
		}
		ranges, err := ConflictRanges(cf, loc, window)
		if err != nil {
			return nil, err
		}
		out = append(out, ranges...)
	}
	return out, nil
}

// blocksTarget reports whether something held on owner affects target.
// Venue-level holds affect every court; a venue-level target is affected by
// everything at the venue.
func blocksTarget(owner, target *int64) bool {
	if owner == nil || target == nil {
		return true
	}
	return *owner == *target
}
