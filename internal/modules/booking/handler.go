package booking

import (
	"errors"
	"net/http"
	"strconv"

	"courtbook/internal/middleware"
	"courtbook/internal/pkg/response"
	"courtbook/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public booking routes on rg and the vendor-only
// ones on vendor.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, vendor *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.POST("/venues/:id/local-time/convert", h.ConvertLocal)

	vendor.PATCH("/bookings/:id", h.UpdateBooking)
	vendor.POST("/bookings/:id/cancel", h.CancelBooking)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", nil)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), middleware.Scope(c), req)
	if err != nil {
		h.writeError(c, err, "Failed to create booking")
		return
	}
	response.Created(c, gin.H{"booking": NewBookingResponse(b)})
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, "Invalid query parameters", nil)
		return
	}

	res, err := h.service.ListBookings(c.Request.Context(), middleware.Scope(c), q)
	if err != nil {
		h.writeError(c, err, "Failed to list bookings")
		return
	}
	response.OK(c, res)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	scope := middleware.Scope(c)
	b, err := h.service.GetBooking(c.Request.Context(), scope, id)
	if err != nil {
		h.writeError(c, err, "Failed to load booking")
		return
	}
	response.OK(c, gin.H{"booking": NewBookingResponse(b).forScope(scope)})
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", nil)
		return
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), middleware.Scope(c), id, req)
	if err != nil {
		h.writeError(c, err, "Failed to update booking")
		return
	}
	response.OK(c, gin.H{"booking": NewBookingResponse(b)})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, "Invalid request body", nil)
			return
		}
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(c, "Invalid cancellation", errs)
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), middleware.Scope(c), id, req.Reason)
	if err != nil {
		h.writeError(c, err, "Failed to cancel booking")
		return
	}
	response.OK(c, gin.H{"booking": NewBookingResponse(b)})
}

func (h *Handler) ConvertLocal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", nil)
		return
	}

	res, err := h.service.ConvertLocal(c.Request.Context(), middleware.Scope(c), id, req)
	if err != nil {
		h.writeError(c, err, "Failed to convert time")
		return
	}
	response.OK(c, res)
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationError(c, verr.Error(), map[string]string{verr.Field: verr.Reason})
	case errors.Is(err, ErrVenueNotFound):
		response.NotFound(c, "VENUE_NOT_FOUND", "Venue not found")
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrNotAvailable):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Court is not available for the selected time")
	case errors.Is(err, ErrLocked):
		response.Error(c, http.StatusConflict, "BOOKING_LOCKED", "Completed or cancelled bookings only accept notes")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Status change not allowed")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Vendor scope required")
	default:
		_ = c.Error(err)
		response.Internal(c, fallback)
	}
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "Invalid id", nil)
		return 0, false
	}
	return id, true
}
