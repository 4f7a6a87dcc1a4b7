// Package cache keeps hot venue metadata in Redis. Timezones and opening hours
// are read on every availability check and rarely change.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "courtbook:"

type VenueSource interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	GetCourt(ctx context.Context, id int64) (*domain.Court, error)
	VendorBySlug(ctx context.Context, slug string) (*domain.Vendor, error)
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// VenueCache is a read-through cache over a VenueSource. A nil client turns it
// into a plain passthrough; Redis failures fall back to the source.
type VenueCache struct {
	rdb *redis.Client
	src VenueSource
	ttl time.Duration
	log *slog.Logger
}

func NewVenueCache(rdb *redis.Client, src VenueSource, ttl time.Duration, log *slog.Logger) *VenueCache {
	if log == nil {
		log = logger.Discard()
	}
	return &VenueCache{rdb: rdb, src: src, ttl: ttl, log: log}
}

func (c *VenueCache) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	return readThrough(ctx, c, fmt.Sprintf("%svenue:%d", keyPrefix, id), func() (*domain.Venue, error) {
		return c.src.GetByID(ctx, id)
	})
}

func (c *VenueCache) GetCourt(ctx context.Context, id int64) (*domain.Court, error) {
	return readThrough(ctx, c, fmt.Sprintf("%scourt:%d", keyPrefix, id), func() (*domain.Court, error) {
		return c.src.GetCourt(ctx, id)
	})
}

func (c *VenueCache) VendorBySlug(ctx context.Context, slug string) (*domain.Vendor, error) {
	key := keyPrefix + "vendor:" + strings.ToLower(strings.TrimSpace(slug))
	return readThrough(ctx, c, key, func() (*domain.Vendor, error) {
		return c.src.VendorBySlug(ctx, slug)
	})
}

// InvalidateVenue drops the cached venue row.
func (c *VenueCache) InvalidateVenue(ctx context.Context, id int64) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, fmt.Sprintf("%svenue:%d", keyPrefix, id)).Err()
}

func readThrough[T any](ctx context.Context, c *VenueCache, key string, load func() (*T, error)) (*T, error) {
	if c.rdb != nil {
		var cached T
		err := c.get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", slog.String("key", key), logger.Err(err))
		}
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if err := c.set(ctx, key, v); err != nil {
			c.log.Warn("cache write failed", slog.String("key", key), logger.Err(err))
		}
	}
	return v, nil
}

func (c *VenueCache) get(ctx context.Context, key string, dest any) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *VenueCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}
