package availability

import (
	"errors"
	"strconv"
	"time"

	"courtbook/internal/middleware"
	"courtbook/internal/pkg/response"
	"courtbook/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	checker *Checker
	venues  VenueLookup
}

func NewHandler(checker *Checker, venues VenueLookup) *Handler {
	return &Handler{checker: checker, venues: venues}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/venues/:id/availability", h.Check)
	rg.GET("/courts/:id/slots", h.Slots)
}

type checkQuery struct {
	CourtID int64  `form:"courtId"`
	Start   string `form:"start" binding:"required"`
	End     string `form:"end" binding:"required"`
}

type checkResponse struct {
	VenueID   int64     `json:"venueId"`
	CourtID   *int64    `json:"courtId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Check answers whether [start, end) is free on a court, or on the whole
// venue when courtId is omitted.
func (h *Handler) Check(c *gin.Context) {
	venueID, ok := idParam(c)
	if !ok {
		return
	}
	var q checkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, "start and end are required", nil)
		return
	}
	start, err1 := time.Parse(time.RFC3339Nano, q.Start)
	end, err2 := time.Parse(time.RFC3339Nano, q.End)
	if err1 != nil || err2 != nil {
		response.ValidationError(c, "start and end must be RFC 3339 instants", nil)
		return
	}

	ctx := c.Request.Context()
	venue, err := h.venues.GetByID(ctx, venueID)
	if err != nil || !middleware.Scope(c).Allows(venue.VendorID) {
		h.notFound(c, err, "VENUE_NOT_FOUND", "Venue not found")
		return
	}

	target := Target{VenueID: venue.ID}
	if q.CourtID > 0 {
		court, err := h.venues.GetCourt(ctx, q.CourtID)
		if err != nil || court.VenueID != venue.ID {
			h.notFound(c, err, "COURT_NOT_FOUND", "Court not found")
			return
		}
		target.CourtID = &court.ID
	}

	response.OK(c, checkResponse{
		VenueID:   venue.ID,
		CourtID:   target.CourtID,
		Start:     start.UTC(),
		End:       end.UTC(),
		Available: h.checker.IsAvailable(ctx, target, start.UTC(), end.UTC(), 0),
	})
}

func (h *Handler) Slots(c *gin.Context) {
	courtID, ok := idParam(c)
	if !ok {
		return
	}
	slotMinutes := 0
	if v := c.Query("slotMinutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 24*60 {
			response.ValidationError(c, "slotMinutes must be a positive number of minutes", nil)
			return
		}
		slotMinutes = n
	}

	ctx := c.Request.Context()
	court, err := h.venues.GetCourt(ctx, courtID)
	if err != nil {
		h.notFound(c, err, "COURT_NOT_FOUND", "Court not found")
		return
	}
	venue, err := h.venues.GetByID(ctx, court.VenueID)
	if err != nil || !middleware.Scope(c).Allows(venue.VendorID) {
		h.notFound(c, err, "COURT_NOT_FOUND", "Court not found")
		return
	}

	day, err := h.checker.FreeSlots(ctx, courtID, c.Query("date"), slotMinutes)
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			response.ValidationError(c, "date must be YYYY-MM-DD", nil)
			return
		}
		_ = c.Error(err)
		response.Internal(c, "Failed to build slots")
		return
	}
	response.OK(c, day)
}

// notFound reports a missing row as 404 and anything else as 500.
func (h *Handler) notFound(c *gin.Context, err error, code, msg string) {
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		_ = c.Error(err)
		response.Internal(c, "Failed to load venue")
		return
	}
	response.NotFound(c, code, msg)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "Invalid id", nil)
		return 0, false
	}
	return id, true
}
