package repository

import (
	"context"
	"fmt"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/timerange"

	"gorm.io/gorm"
)

// SlotReader is the read side the availability checker needs.
type SlotReader interface {
	ConfirmedOverlapping(ctx context.Context, venueID int64, courtID *int64, r timerange.Range, excludeID int64) ([]domain.Booking, error)
	ActiveConflicts(ctx context.Context, venueID int64, courtID *int64, r timerange.Range) ([]domain.Conflict, error)
}

// SlotCheck decides, inside a write transaction, whether a slot is still free.
type SlotCheck func(ctx context.Context, reader SlotReader) bool

type SlotStore struct {
	db *gorm.DB
}

func NewSlotStore(db *gorm.DB) *SlotStore {
	return &SlotStore{db: db}
}

// ConfirmedOverlapping returns CONFIRMED bookings whose [start,end) meets r.
// With a court, bookings on that court and court-less venue bookings count.
func (s *SlotStore) ConfirmedOverlapping(ctx context.Context, venueID int64, courtID *int64, r timerange.Range, excludeID int64) ([]domain.Booking, error) {
	q := s.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("venue_id = ?", venueID).
		Where("status = ?", domain.BookingConfirmed).
		Where("start_time < ? AND end_time > ?", r.End.UTC(), r.Start.UTC())

	if courtID != nil {
		q = q.Where("(court_id = ? OR court_id IS NULL)", *courtID)
	}
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var rows []domain.Booking
	if err := q.Order("start_time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("confirmed overlapping bookings: %w", err)
	}
	return rows, nil
}

// ActiveConflicts returns active blackouts for the venue that can touch r.
// Recurring rows are returned whenever their first occurrence starts before
// r ends; the caller expands them.
func (s *SlotStore) ActiveConflicts(ctx context.Context, venueID int64, courtID *int64, r timerange.Range) ([]domain.Conflict, error) {
	q := s.db.WithContext(ctx).
		Model(&domain.Conflict{}).
		Where("venue_id = ?", venueID).
		Where("status = ?", domain.ConflictActive).
		Where(
			"((recurrence IS NULL OR recurrence = '') AND start_time < ? AND end_time > ?) OR (recurrence <> '' AND start_time < ?)",
			r.End.UTC(), r.Start.UTC(), r.End.UTC(),
		)

	if courtID != nil {
		q = q.Where("(court_id = ? OR court_id IS NULL)", *courtID)
	}

	var rows []domain.Conflict
	if err := q.Order("start_time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("active conflicts: %w", err)
	}
	return rows, nil
}
