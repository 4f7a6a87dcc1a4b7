package conflict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/modules/availability"
	"courtbook/internal/pkg/validator"
	"courtbook/internal/pkg/venuetime"
	"courtbook/internal/repository"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("conflict not found")
	ErrVenueNotFound = errors.New("venue not found")
	ErrForbidden     = errors.New("forbidden")
)

type Repository interface {
	Create(ctx context.Context, c *domain.Conflict) error
	GetByID(ctx context.Context, id int64) (*domain.Conflict, error)
	ListByVenue(ctx context.Context, venueID int64, activeOnly bool) ([]domain.Conflict, error)
	Deactivate(ctx context.Context, id int64) error
}

type VenueRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	GetCourt(ctx context.Context, id int64) (*domain.Court, error)
}

type CreateConflictRequest struct {
	CourtID    *int64 `json:"courtId"`
	StartTime  string `json:"startTime" validate:"required"`
	EndTime    string `json:"endTime" validate:"required"`
	Reason     string `json:"reason" validate:"max=255"`
	Recurrence string `json:"recurrence" validate:"rrule"`
}

type ConflictResponse struct {
	ID             int64     `json:"id"`
	VenueID        int64     `json:"venueId"`
	CourtID        *int64    `json:"courtId"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	LocalStartTime string    `json:"localStartTime"`
	LocalEndTime   string    `json:"localEndTime"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	Recurrence     string    `json:"recurrence,omitempty"`
}

func newResponse(c *domain.Conflict, zone string) ConflictResponse {
	return ConflictResponse{
		ID:             c.ID,
		VenueID:        c.VenueID,
		CourtID:        c.CourtID,
		StartTime:      c.StartTime.UTC(),
		EndTime:        c.EndTime.UTC(),
		LocalStartTime: venuetime.ToLocal(c.StartTime, zone),
		LocalEndTime:   venuetime.ToLocal(c.EndTime, zone),
		Status:         string(c.Status),
		Reason:         c.Reason,
		Recurrence:     c.Recurrence,
	}
}

type Service struct {
	conflicts Repository
	venues    VenueRepository
}

func NewService(conflicts Repository, venues VenueRepository) *Service {
	return &Service{conflicts: conflicts, venues: venues}
}

// Create records a blackout for a venue the caller owns. Existing bookings in
// the window are left alone; only new bookings are blocked.
func (s *Service) Create(ctx context.Context, scope domain.TenantScope, venueID int64, req CreateConflictRequest) (*ConflictResponse, error) {
	venue, err := s.ownedVenue(ctx, scope, venueID)
	if err != nil {
		return nil, err
	}
	if errs := validator.Validate(req); errs != nil {
		field, tag := validator.First(errs)
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, field, tag)
	}

	start, err := time.Parse(time.RFC3339Nano, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: startTime must be an ISO 8601 datetime", ErrValidation)
	}
	end, err := time.Parse(time.RFC3339Nano, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: endTime must be an ISO 8601 datetime", ErrValidation)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: endTime must be after startTime", ErrValidation)
	}
	if err := availability.ValidateRecurrence(req.Recurrence); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if req.CourtID != nil {
		court, err := s.venues.GetCourt(ctx, *req.CourtID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if court == nil || court.VenueID != venue.ID {
			return nil, fmt.Errorf("%w: court does not belong to venue", ErrValidation)
		}
	}

	c := &domain.Conflict{
		VenueID:    venue.ID,
		CourtID:    req.CourtID,
		StartTime:  start,
		EndTime:    end,
		Status:     domain.ConflictActive,
		Reason:     req.Reason,
		Recurrence: req.Recurrence,
	}
	if err := s.conflicts.Create(ctx, c); err != nil {
		return nil, err
	}

	out := newResponse(c, venue.Timezone)
	return &out, nil
}

func (s *Service) List(ctx context.Context, scope domain.TenantScope, venueID int64, activeOnly bool) ([]ConflictResponse, error) {
	venue, err := s.ownedVenue(ctx, scope, venueID)
	if err != nil {
		return nil, err
	}

	rows, err := s.conflicts.ListByVenue(ctx, venue.ID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]ConflictResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newResponse(&rows[i], venue.Timezone))
	}
	return out, nil
}

func (s *Service) Deactivate(ctx context.Context, scope domain.TenantScope, id int64) error {
	c, err := s.conflicts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if _, err := s.ownedVenue(ctx, scope, c.VenueID); err != nil {
		if errors.Is(err, ErrVenueNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.conflicts.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ownedVenue(ctx context.Context, scope domain.TenantScope, venueID int64) (*domain.Venue, error) {
	if !scope.IsScoped() {
		return nil, ErrForbidden
	}
	venue, err := s.venues.GetByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	if !scope.Allows(venue.VendorID) {
		return nil, ErrVenueNotFound
	}
	return venue, nil
}
