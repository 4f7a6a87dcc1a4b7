package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/events"
	"courtbook/internal/repository"
	"courtbook/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ExpirePending(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	args := m.Called(ctx, cutoff, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type capture struct {
	mu     sync.Mutex
	events []events.BookingEvent
}

func (c *capture) Publish(_ context.Context, ev events.BookingEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newSweeper(store Store, pub events.Publisher) *Sweeper {
	s := New(store, pub, Config{Schedule: "@every 5m", PendingTTL: 30 * time.Minute}, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestRunOnce(t *testing.T) {
	store := new(MockStore)
	store.On("ExpirePending", mock.Anything, fixedNow.Add(-30*time.Minute), ExpiryReason).Return(int64(2), nil)
	store.On("CompletePast", mock.Anything, fixedNow).Return(int64(0), nil)
	pub := &capture{}

	res, err := newSweeper(store, pub).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Expired: 2}, res)

	require.Len(t, pub.events, 1, "zero counts are not announced")
	assert.Equal(t, events.BookingExpired, pub.events[0].Type)
	assert.Equal(t, int64(2), pub.events[0].Count)
	store.AssertExpectations(t)
}

func TestRunOnceKeepsGoingAfterFailure(t *testing.T) {
	store := new(MockStore)
	store.On("ExpirePending", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	store.On("CompletePast", mock.Anything, mock.Anything).Return(int64(3), nil)
	pub := &capture{}

	res, err := newSweeper(store, pub).RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(3), res.Completed)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.BookingCompleted, pub.events[0].Type)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(new(MockStore), nil, Config{Schedule: "every tuesday", PendingTTL: time.Minute}, nil)
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := New(new(MockStore), nil, Config{Schedule: "@every 1h", PendingTTL: time.Minute}, nil)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}

func TestRunOnceAgainstDatabase(t *testing.T) {
	db := testsupport.NewDB(t)
	f := testsupport.Seed(t, db, "UTC")

	stale := domain.Booking{
		VenueID: f.Venue.ID, VendorID: f.Vendor.ID, CourtID: &f.CourtA.ID,
		StartTime: fixedNow.Add(24 * time.Hour), EndTime: fixedNow.Add(25 * time.Hour),
		Status: domain.BookingPendingPayment, CreatedAt: fixedNow.Add(-time.Hour),
	}
	fresh := domain.Booking{
		VenueID: f.Venue.ID, VendorID: f.Vendor.ID, CourtID: &f.CourtB.ID,
		StartTime: fixedNow.Add(24 * time.Hour), EndTime: fixedNow.Add(25 * time.Hour),
		Status: domain.BookingPendingPayment, CreatedAt: fixedNow.Add(-10 * time.Minute),
	}
	past := domain.Booking{
		VenueID: f.Venue.ID, VendorID: f.Vendor.ID, CourtID: &f.CourtA.ID,
		StartTime: fixedNow.Add(-3 * time.Hour), EndTime: fixedNow.Add(-2 * time.Hour),
		Status: domain.BookingConfirmed,
	}
	for _, b := range []*domain.Booking{&stale, &fresh, &past} {
		require.NoError(t, db.Create(b).Error)
	}

	res, err := newSweeper(repository.NewBookingRepository(db), nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Expired: 1, Completed: 1}, res)

	load := func(id int64) domain.Booking {
		var b domain.Booking
		require.NoError(t, db.First(&b, id).Error)
		return b
	}

	got := load(stale.ID)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, ExpiryReason, got.CancellationReason)
	assert.NotNil(t, got.CancelledAt)

	assert.Equal(t, domain.BookingPendingPayment, load(fresh.ID).Status)
	assert.Equal(t, domain.BookingCompleted, load(past.ID).Status)
}
