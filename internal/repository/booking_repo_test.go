package repository

import (
	"context"
	"testing"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/timerange"
	"courtbook/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(hh int) time.Time {
	return time.Date(2025, 1, 1, hh, 0, 0, 0, time.UTC)
}

func TestSlotStoreConfirmedOverlapping(t *testing.T) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "UTC")
	ctx := context.Background()

	rows := []domain.Booking{
		{VenueID: f.Venue.ID, VendorID: f.Vendor.ID, CourtID: testsupport.Int64(f.CourtA.ID), StartTime: day(10), EndTime: day(12), Status: domain.BookingConfirmed},
		{VenueID: f.Venue.ID, VendorID: f.Vendor.ID, CourtID: testsupport.Int64(f.CourtB.ID), StartTime: day(10), EndTime: day(12), Status: domain.BookingConfirmed},
		{VenueID: f.Venue.ID, VendorID: f.Vendor.ID, CourtID: testsupport.Int64(f.CourtA.ID), StartTime: day(14), EndTime: day(15), Status: domain.BookingCancelled},
	}
	require.NoError(t, db.Create(&rows).Error)

	store := NewSlotStore(db)

	got, err := store.ConfirmedOverlapping(ctx, f.Venue.ID, testsupport.Int64(f.CourtA.ID), timerange.New(day(11), day(13)), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rows[0].ID, got[0].ID)

	got, err = store.ConfirmedOverlapping(ctx, f.Venue.ID, testsupport.Int64(f.CourtA.ID), timerange.New(day(12), day(13)), 0)
	require.NoError(t, err)
	assert.Empty(t, got, "touching boundary must not match")

	got, err = store.ConfirmedOverlapping(ctx, f.Venue.ID, testsupport.Int64(f.CourtA.ID), timerange.New(day(14), day(15)), 0)
	require.NoError(t, err)
	assert.Empty(t, got, "cancelled bookings do not block")

	got, err = store.ConfirmedOverlapping(ctx, f.Venue.ID, nil, timerange.New(day(11), day(13)), rows[0].ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rows[1].ID, got[0].ID)
}

func TestSlotStoreActiveConflicts(t *testing.T) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "UTC")
	ctx := context.Background()

	conflicts := NewConflictRepository(db)
	venueWide := &domain.Conflict{VenueID: f.Venue.ID, StartTime: day(8), EndTime: day(9)}
	courtB := &domain.Conflict{VenueID: f.Venue.ID, CourtID: testsupport.Int64(f.CourtB.ID), StartTime: day(8), EndTime: day(9)}
	weekly := &domain.Conflict{VenueID: f.Venue.ID, StartTime: day(6).AddDate(0, 0, -14), EndTime: day(7).AddDate(0, 0, -14), Recurrence: "FREQ=WEEKLY"}
	inactive := &domain.Conflict{VenueID: f.Venue.ID, StartTime: day(8), EndTime: day(9), Status: domain.ConflictInactive}
	for _, c := range []*domain.Conflict{venueWide, courtB, weekly, inactive} {
		require.NoError(t, conflicts.Create(ctx, c))
	}

	got, err := NewSlotStore(db).ActiveConflicts(ctx, f.Venue.ID, testsupport.Int64(f.CourtA.ID), timerange.New(day(8), day(10)))
	require.NoError(t, err)

	ids := make([]int64, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []int64{venueWide.ID, weekly.ID}, ids)
}

func TestCreateCheckedRejectsWhenCheckFails(t *testing.T) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "UTC")
	repo := NewBookingRepository(db)
	ctx := context.Background()

	b := &domain.Booking{VenueID: f.Venue.ID, VendorID: f.Vendor.ID, StartTime: day(10), EndTime: day(11), Status: domain.BookingConfirmed}
	err := repo.CreateChecked(ctx, b, func(context.Context, SlotReader) bool { return false })
	assert.ErrorIs(t, err, ErrSlotTaken)

	var count int64
	require.NoError(t, db.Model(&domain.Booking{}).Count(&count).Error)
	assert.Zero(t, count)

	err = repo.CreateChecked(ctx, b, func(context.Context, SlotReader) bool { return true })
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
}

func TestListAppliesTenantAndPagination(t *testing.T) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "UTC")
	repo := NewBookingRepository(db)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, db.Create(&domain.Booking{
			VenueID: f.Venue.ID, VendorID: f.Vendor.ID,
			StartTime: day(0).Add(time.Duration(i) * time.Hour), EndTime: day(0).Add(time.Duration(i+1) * time.Hour),
			Status: domain.BookingConfirmed, BookingType: domain.BookingSimple,
		}).Error)
	}
	require.NoError(t, db.Create(&domain.Booking{
		VenueID: f.OtherVenue.ID, VendorID: f.OtherVendor.ID,
		StartTime: day(5), EndTime: day(6), Status: domain.BookingConfirmed,
	}).Error)

	rows, total, err := repo.List(ctx, BookingFilters{VendorID: f.Vendor.ID, Status: "confirmed", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, rows, 10)
	assert.True(t, rows[0].StartTime.After(rows[1].StartTime), "newest first")
	assert.NotNil(t, rows[0].Venue)

	_, total, err = repo.List(ctx, BookingFilters{VendorID: f.Vendor.ID, VenueID: f.OtherVenue.ID, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total, "tenant filter cannot be widened by venue filter")

	start := day(20)
	_, total, err = repo.List(ctx, BookingFilters{VendorID: f.Vendor.ID, StartDate: &start, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestSweeperQueries(t *testing.T) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "UTC")
	repo := NewBookingRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := domain.Booking{VenueID: f.Venue.ID, VendorID: f.Vendor.ID, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), Status: domain.BookingPendingPayment, CreatedAt: now.Add(-time.Hour)}
	past := domain.Booking{VenueID: f.Venue.ID, VendorID: f.Vendor.ID, StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-2 * time.Hour), Status: domain.BookingConfirmed}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&past).Error)

	n, err := repo.ExpirePending(ctx, now.Add(-30*time.Minute), "payment timeout")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CompletePast(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, "payment timeout", got.CancellationReason)

	got, err = repo.GetByID(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, got.Status)
}
