// Package catalog manages the venues and courts a vendor offers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/pkg/validator"
	"courtbook/internal/repository"
)

const (
	defaultOpen  = "06:00"
	defaultClose = "23:00"
)

var (
	ErrNotFound  = errors.New("venue not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries the per-field failures of a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, tag := range e.Fields {
		parts = append(parts, f+" "+tag)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type VenueStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]domain.Venue, error)
	CreateVenue(ctx context.Context, v *domain.Venue) error
	CreateCourt(ctx context.Context, c *domain.Court) error
}

// Invalidator evicts cached venue reads after a write.
type Invalidator interface {
	InvalidateVenue(ctx context.Context, id int64) error
}

type Service struct {
	venues VenueStore
	cache  Invalidator
	log    *slog.Logger
	now    func() time.Time
}

func NewService(venues VenueStore, cache Invalidator, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{venues: venues, cache: cache, log: log, now: time.Now}
}

func (s *Service) ListVenues(ctx context.Context, scope domain.TenantScope) ([]VenueResponse, error) {
	if !scope.IsScoped() {
		return nil, ErrForbidden
	}
	rows, err := s.venues.ListByVendor(ctx, scope.VendorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]VenueResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newVenueResponse(&rows[i], now))
	}
	return out, nil
}

func (s *Service) GetVenue(ctx context.Context, scope domain.TenantScope, id int64) (*VenueResponse, error) {
	v, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	out := newVenueResponse(v, s.now())
	return &out, nil
}

func (s *Service) CreateVenue(ctx context.Context, scope domain.TenantScope, req CreateVenueRequest) (*VenueResponse, error) {
	if !scope.IsScoped() {
		return nil, ErrForbidden
	}
	req.CurrencyCode = strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	req.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	openAt, closeAt := req.OpenTime, req.CloseTime
	if openAt == "" {
		openAt = defaultOpen
	}
	if closeAt == "" {
		closeAt = defaultClose
	}
	// HH:MM compares correctly as text.
	if openAt >= closeAt {
		return nil, &ValidationError{Fields: map[string]string{"closeTime": "after_open"}}
	}

	v := &domain.Venue{
		VendorID:     scope.VendorID,
		Name:         strings.TrimSpace(req.Name),
		Timezone:     req.Timezone,
		CurrencyCode: req.CurrencyCode,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		OpenTime:     openAt,
		CloseTime:    closeAt,
	}
	if err := s.venues.CreateVenue(ctx, v); err != nil {
		return nil, fmt.Errorf("create venue: %w", err)
	}

	out := newVenueResponse(v, s.now())
	return &out, nil
}

func (s *Service) CreateCourt(ctx context.Context, scope domain.TenantScope, venueID int64, req CreateCourtRequest) (*CourtResponse, error) {
	if !scope.IsScoped() {
		return nil, ErrForbidden
	}
	v, err := s.load(ctx, scope, venueID)
	if err != nil {
		return nil, err
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	c := &domain.Court{
		VenueID:      v.ID,
		Name:         strings.TrimSpace(req.Name),
		SportID:      req.SportID,
		FormatID:     req.FormatID,
		PricePerHour: req.PricePerHour,
		IsActive:     true,
	}
	if err := s.venues.CreateCourt(ctx, c); err != nil {
		return nil, fmt.Errorf("create court: %w", err)
	}

	// The cached venue carries its court list.
	if s.cache != nil {
		if err := s.cache.InvalidateVenue(ctx, v.ID); err != nil {
			s.log.Warn("venue cache invalidation failed", slog.Int64("venue_id", v.ID), logger.Err(err))
		}
	}

	out := newCourtResponse(c)
	return &out, nil
}

// load fetches a venue visible in scope. Other tenants' venues are reported
// as missing.
func (s *Service) load(ctx context.Context, scope domain.TenantScope, id int64) (*domain.Venue, error) {
	v, err := s.venues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !scope.Allows(v.VendorID) {
		return nil, ErrNotFound
	}
	return v, nil
}
