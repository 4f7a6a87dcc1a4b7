package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"courtbook/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	venueCalls int
	err        error
}

func (s *countingSource) GetByID(_ context.Context, id int64) (*domain.Venue, error) {
	s.venueCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Venue{ID: id, Timezone: "Asia/Kolkata"}, nil
}

func (s *countingSource) GetCourt(_ context.Context, id int64) (*domain.Court, error) {
	return &domain.Court{ID: id, VenueID: 1}, nil
}

func (s *countingSource) VendorBySlug(_ context.Context, slug string) (*domain.Vendor, error) {
	return &domain.Vendor{ID: 1, Slug: slug}, nil
}

func TestVenueCachePassthroughWithoutRedis(t *testing.T) {
	src := &countingSource{}
	c := NewVenueCache(nil, src, time.Minute, nil)

	v, err := c.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", v.Timezone)

	_, err = c.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, src.venueCalls)

	vendor, err := c.VendorBySlug(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", vendor.Slug)

	assert.NoError(t, c.InvalidateVenue(context.Background(), 5))
}

func TestVenueCacheFallsBackWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	src := &countingSource{}
	c := NewVenueCache(rdb, src, time.Minute, nil)

	v, err := c.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.ID)
	assert.Equal(t, 1, src.venueCalls)

	court, err := c.GetCourt(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), court.ID)
}

func TestVenueCachePropagatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	c := NewVenueCache(nil, &countingSource{err: boom}, time.Minute, nil)

	_, err := c.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}
