package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courtbook/internal/database"
	"courtbook/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type BookingFilters struct {
	VendorID    int64
	VenueID     int64
	CourtID     int64
	CustomerID  int64
	Status      string
	BookingType string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

func normalizeTimes(b *domain.Booking) {
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
}

// CreateChecked inserts b only if check still passes while the slot lock is held.
func (r *BookingRepository) CreateChecked(ctx context.Context, b *domain.Booking, check SlotCheck) error {
	normalizeTimes(b)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockFor(ctx, tx, b); err != nil {
			return err
		}
		if !check(ctx, NewSlotStore(tx)) {
			return ErrSlotTaken
		}
		if err := tx.Create(b).Error; err != nil {
			if database.IsConstraintViolation(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
}

// SaveChecked persists b; when check is non-nil it runs under the slot lock first.
func (r *BookingRepository) SaveChecked(ctx context.Context, b *domain.Booking, check SlotCheck) error {
	normalizeTimes(b)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if check != nil {
			if err := lockFor(ctx, tx, b); err != nil {
				return err
			}
			if !check(ctx, NewSlotStore(tx)) {
				return ErrSlotTaken
			}
		}
		err := tx.Model(b).Select(
			"court_id", "start_time", "end_time", "duration", "total_amount",
			"status", "notes", "cancelled_at", "cancellation_reason", "updated_at",
		).Updates(b).Error
		if err != nil {
			if database.IsConstraintViolation(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("update booking: %w", err)
		}
		return nil
	})
}

func lockFor(ctx context.Context, tx *gorm.DB, b *domain.Booking) error {
	if b.CourtID != nil {
		return database.LockSlot(ctx, tx, "court", *b.CourtID)
	}
	return database.LockSlot(ctx, tx, "venue", b.VenueID)
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Venue").
		Preload("Vendor").
		Preload("Court").
		First(&b, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// List applies filters, newest start first. VendorID is the tenant boundary and
// is always applied when set.
func (r *BookingRepository) List(ctx context.Context, f BookingFilters) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Booking{})

	if f.VendorID > 0 {
		q = q.Where("bookings.vendor_id = ?", f.VendorID)
	}
	if f.VenueID > 0 {
		q = q.Where("bookings.venue_id = ?", f.VenueID)
	}
	if f.CourtID > 0 {
		q = q.Where("bookings.court_id = ?", f.CourtID)
	}
	if f.CustomerID > 0 {
		q = q.Where("bookings.customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("bookings.status = ?", strings.ToUpper(f.Status))
	}
	if f.BookingType != "" {
		q = q.Where("bookings.booking_type = ?", strings.ToUpper(f.BookingType))
	}
	if f.StartDate != nil {
		q = q.Where("bookings.start_time >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("bookings.start_time <= ?", f.EndDate.UTC())
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	var rows []domain.Booking
	err := q.
		Preload("Venue").
		Preload("Vendor").
		Preload("Court").
		Order("bookings.start_time DESC").
		Order("bookings.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return rows, total, nil
}

// ForVenueRange returns non-cancelled bookings of a venue meeting [from, to).
func (r *BookingRepository) ForVenueRange(ctx context.Context, venueID int64, from, to time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Court").
		Where("venue_id = ?", venueID).
		Where("status <> ?", domain.BookingCancelled).
		Where("start_time < ? AND end_time > ?", to.UTC(), from.UTC()).
		Order("start_time").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("venue range bookings: %w", err)
	}
	return rows, nil
}

// ExpirePending cancels PENDING_PAYMENT bookings created before cutoff.
func (r *BookingRepository) ExpirePending(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("status = ? AND created_at < ?", domain.BookingPendingPayment, cutoff.UTC()).
		Updates(map[string]any{
			"status":              domain.BookingCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        now,
			"updated_at":          now,
		})
	if tx.Error != nil {
		return 0, fmt.Errorf("expire pending bookings: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// CompletePast marks CONFIRMED bookings that ended before now as COMPLETED.
func (r *BookingRepository) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("status = ? AND end_time < ?", domain.BookingConfirmed, now.UTC()).
		Updates(map[string]any{
			"status":     domain.BookingCompleted,
			"updated_at": now.UTC(),
		})
	if tx.Error != nil {
		return 0, fmt.Errorf("complete past bookings: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}
