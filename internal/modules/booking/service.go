package booking

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/events"
	"courtbook/internal/modules/availability"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/pkg/timerange"
	"courtbook/internal/pkg/validator"
	"courtbook/internal/pkg/venuetime"
	"courtbook/internal/repository"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Service struct {
	bookings BookingRepository
	venues   VenueRepository
	checker  SlotChecker
	events   events.Publisher
	log      *slog.Logger
}

func NewService(
	bookings BookingRepository,
	venues VenueRepository,
	checker SlotChecker,
	publisher events.Publisher,
	log *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.Nop()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		bookings: bookings,
		venues:   venues,
		checker:  checker,
		events:   publisher,
		log:      log,
	}
}

func (s *Service) CreateBooking(ctx context.Context, scope domain.TenantScope, req CreateBookingRequest) (*domain.Booking, error) {
	if req.VenueID == nil || *req.VenueID <= 0 {
		return nil, invalid("venueId", "is required")
	}
	if req.StartTime == nil || *req.StartTime == "" {
		return nil, invalid("startTime", "is required")
	}
	hasEnd := req.EndTime != nil && *req.EndTime != ""
	if req.Duration == nil && !hasEnd {
		return nil, invalid("duration", "duration or endTime is required")
	}
	if req.TotalAmount == nil {
		return nil, invalid("totalAmount", "is required")
	}

	start, err := parseInstant(*req.StartTime)
	if err != nil {
		return nil, invalid("startTime", "must be an ISO 8601 datetime")
	}
	var end time.Time
	if hasEnd {
		if end, err = parseInstant(*req.EndTime); err != nil {
			return nil, invalid("endTime", "must be an ISO 8601 datetime")
		}
	}

	if req.Duration != nil && *req.Duration <= 0 {
		return nil, invalid("duration", "must be a positive number of hours")
	}

	if !hasEnd {
		end = start.Add(time.Duration(*req.Duration) * time.Hour)
	} else if !end.After(start) {
		return nil, invalid("endTime", "must be after startTime")
	}
	if hasEnd && req.Duration != nil && end.Sub(start) != time.Duration(*req.Duration)*time.Hour {
		return nil, invalid("duration", "does not match endTime")
	}
	duration := hoursBetween(start, end)

	if *req.TotalAmount < 0 {
		return nil, invalid("totalAmount", "must not be negative")
	}
	status := domain.BookingConfirmed
	if req.Status != "" {
		st, ok := domain.ParseBookingStatus(req.Status)
		if !ok {
			return nil, invalid("status", "unknown status")
		}
		status = st
	}
	bookingType := domain.BookingSimple
	if req.BookingType != "" {
		bt, ok := domain.ParseBookingType(req.BookingType)
		if !ok {
			return nil, invalid("bookingType", "unknown booking type")
		}
		bookingType = bt
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, invalid(validator.First(errs))
	}

	venue, err := s.scopedVenue(ctx, scope, *req.VenueID)
	if err != nil {
		return nil, err
	}
	if req.CourtID != nil {
		if err := s.ensureCourt(ctx, venue, *req.CourtID); err != nil {
			return nil, err
		}
	}

	b := &domain.Booking{
		VenueID:       venue.ID,
		VendorID:      venue.VendorID,
		CourtID:       req.CourtID,
		CustomerID:    req.CustomerID,
		StartTime:     start,
		EndTime:       end,
		Duration:      duration,
		TotalAmount:   math.Round(*req.TotalAmount*100) / 100,
		Status:        status,
		BookingType:   bookingType,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
	}

	target := availability.Target{VenueID: venue.ID, CourtID: req.CourtID}
	check := s.checker.SlotCheck(venue, target, timerange.New(start, end), 0)
	if err := s.bookings.CreateChecked(ctx, b, check); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrNotAvailable
		}
		return nil, err
	}

	created, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCreated, created)
	return created, nil
}

func (s *Service) ListBookings(ctx context.Context, scope domain.TenantScope, q ListQuery) (*ListResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	applied := AppliedFilters{
		VenueID:    q.VenueID,
		CourtID:    q.CourtID,
		CustomerID: q.CustomerID,
	}
	if q.Status != "" {
		st, ok := domain.ParseBookingStatus(q.Status)
		if !ok {
			return nil, invalid("status", "unknown status")
		}
		applied.Status = string(st)
	}
	if q.BookingType != "" {
		bt, ok := domain.ParseBookingType(q.BookingType)
		if !ok {
			return nil, invalid("bookingType", "unknown booking type")
		}
		applied.BookingType = string(bt)
	}
	if q.StartDate != "" {
		t, err := parseBound(q.StartDate, false)
		if err != nil {
			return nil, invalid("startDate", "must be a date or ISO 8601 datetime")
		}
		applied.StartDate = &t
	}
	if q.EndDate != "" {
		t, err := parseBound(q.EndDate, true)
		if err != nil {
			return nil, invalid("endDate", "must be a date or ISO 8601 datetime")
		}
		applied.EndDate = &t
	}

	rows, total, err := s.bookings.List(ctx, repository.BookingFilters{
		VendorID:    scope.VendorID,
		VenueID:     applied.VenueID,
		CourtID:     applied.CourtID,
		CustomerID:  applied.CustomerID,
		Status:      applied.Status,
		BookingType: applied.BookingType,
		StartDate:   applied.StartDate,
		EndDate:     applied.EndDate,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, err
	}

	out := &ListResult{
		Bookings: make([]BookingResponse, 0, len(rows)),
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: int64(offset+limit) < total,
		},
		Filters: applied,
	}
	for i := range rows {
		out.Bookings = append(out.Bookings, NewBookingResponse(&rows[i]).forScope(scope))
	}
	return out, nil
}

func (s *Service) GetBooking(ctx context.Context, scope domain.TenantScope, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !scope.Allows(b.VendorID) {
		return nil, ErrNotFound
	}
	return b, nil
}

// UpdateBooking applies a vendor edit. Completed and cancelled bookings only
// accept notes.
func (s *Service) UpdateBooking(ctx context.Context, scope domain.TenantScope, id int64, req UpdateBookingRequest) (*domain.Booking, error) {
	if !scope.IsScoped() {
		return nil, ErrForbidden
	}
	b, err := s.GetBooking(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() && !req.onlyNotes() {
		return nil, ErrLocked
	}

	prevStatus := b.Status
	slotChanged := false

	if req.StartTime != nil {
		t, err := parseInstant(*req.StartTime)
		if err != nil {
			return nil, invalid("startTime", "must be an ISO 8601 datetime")
		}
		slotChanged = slotChanged || !t.Equal(b.StartTime)
		b.StartTime = t
	}
	if req.EndTime != nil {
		t, err := parseInstant(*req.EndTime)
		if err != nil {
			return nil, invalid("endTime", "must be an ISO 8601 datetime")
		}
		slotChanged = slotChanged || !t.Equal(b.EndTime)
		b.EndTime = t
	}
	if !b.EndTime.After(b.StartTime) {
		return nil, invalid("endTime", "must be after startTime")
	}
	b.Duration = hoursBetween(b.StartTime, b.EndTime)

	venue := b.Venue
	if venue == nil {
		if venue, err = s.scopedVenue(ctx, scope, b.VenueID); err != nil {
			return nil, err
		}
	}

	if req.CourtID != nil {
		next := req.CourtID
		if *next == 0 {
			next = nil
		} else if err := s.ensureCourt(ctx, venue, *next); err != nil {
			return nil, err
		}
		if !sameCourt(b.CourtID, next) {
			slotChanged = true
			b.CourtID = next
			b.Court = nil
		}
	}

	if req.Status != nil {
		next, ok := domain.ParseBookingStatus(*req.Status)
		if !ok {
			return nil, invalid("status", "unknown status")
		}
		if !b.Status.CanTransitionTo(next) {
			return nil, ErrInvalidStatusTransition
		}
		b.Status = next
		if next == domain.BookingCancelled && prevStatus != domain.BookingCancelled {
			now := time.Now().UTC()
			b.CancelledAt = &now
		}
	}

	if req.TotalAmount != nil {
		if *req.TotalAmount < 0 {
			return nil, invalid("totalAmount", "must not be negative")
		}
		b.TotalAmount = math.Round(*req.TotalAmount*100) / 100
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}

	var check repository.SlotCheck
	becomesBlocking := b.Status == domain.BookingConfirmed && prevStatus != domain.BookingConfirmed
	if b.Status == domain.BookingConfirmed && (slotChanged || becomesBlocking) {
		target := availability.Target{VenueID: b.VenueID, CourtID: b.CourtID}
		check = s.checker.SlotCheck(venue, target, timerange.New(b.StartTime, b.EndTime), b.ID)
	}

	if err := s.bookings.SaveChecked(ctx, b, check); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrNotAvailable
		}
		return nil, err
	}

	updated, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if updated.Status == domain.BookingCancelled && prevStatus != domain.BookingCancelled {
		s.publish(ctx, events.BookingCancelled, updated)
	} else {
		s.publish(ctx, events.BookingUpdated, updated)
	}
	return updated, nil
}

func (s *Service) CancelBooking(ctx context.Context, scope domain.TenantScope, id int64, reason string) (*domain.Booking, error) {
	if !scope.IsScoped() {
		return nil, ErrForbidden
	}
	b, err := s.GetBooking(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() || !b.Status.CanTransitionTo(domain.BookingCancelled) {
		return nil, ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	b.Status = domain.BookingCancelled
	b.CancelledAt = &now
	b.CancellationReason = reason

	if err := s.bookings.SaveChecked(ctx, b, nil); err != nil {
		return nil, err
	}

	cancelled, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCancelled, cancelled)
	return cancelled, nil
}

// ConvertLocal translates between a venue-local wall clock and a UTC instant.
// Exactly one of req.Local and req.Instant must be set.
func (s *Service) ConvertLocal(ctx context.Context, scope domain.TenantScope, venueID int64, req ConvertRequest) (*ConvertResponse, error) {
	hasLocal := req.Local != nil && *req.Local != ""
	hasInstant := req.Instant != nil && *req.Instant != ""
	if hasLocal == hasInstant {
		return nil, invalid("local", "provide exactly one of local or instant")
	}

	venue, err := s.scopedVenue(ctx, scope, venueID)
	if err != nil {
		return nil, err
	}

	var instant time.Time
	if hasLocal {
		if instant, err = venuetime.FromLocal(*req.Local, venue.Timezone); err != nil {
			return nil, invalid("local", "must look like 2006-01-02T15:04")
		}
	} else if instant, err = parseInstant(*req.Instant); err != nil {
		return nil, invalid("instant", "must be an ISO 8601 datetime")
	}

	return &ConvertResponse{
		VenueID:  venue.ID,
		Timezone: venue.Timezone,
		Local:    venuetime.ToLocal(instant, venue.Timezone),
		Instant:  instant.UTC(),
	}, nil
}

func (s *Service) scopedVenue(ctx context.Context, scope domain.TenantScope, venueID int64) (*domain.Venue, error) {
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

func (s *Service) ensureCourt(ctx context.Context, venue *domain.Venue, courtID int64) error {
	court, err := s.venues.GetCourt(ctx, courtID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("courtId", "unknown court")
		}
		return err
	}
	if court.VenueID != venue.ID || !court.IsActive {
		return invalid("courtId", "court is not bookable at this venue")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, t events.Type, b *domain.Booking) {
	if err := s.events.Publish(ctx, events.NewBookingEvent(t, b)); err != nil {
		s.log.Warn("failed to publish booking event",
			slog.String("type", string(t)),
			slog.Int64("booking_id", b.ID),
			logger.Err(err),
		)
	}
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseBound accepts a full instant or a bare date. A bare end date covers the
// whole UTC day.
func parseBound(s string, end bool) (time.Time, error) {
	if t, err := parseInstant(s); err == nil {
		return t, nil
	}
	d, err := time.Parse(venuetime.DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		return d.Add(24*time.Hour - time.Nanosecond), nil
	}
	return d, nil
}

func hoursBetween(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours()))
}

func sameCourt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
