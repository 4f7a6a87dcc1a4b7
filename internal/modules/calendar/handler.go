package calendar

import (
	"errors"
	"net/http"

	"courtbook/internal/middleware"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(vendor *gin.RouterGroup) {
	vendor.GET("/vendor/calendar", h.View)
	vendor.GET("/vendor/calendar.ics", h.Export)
}

func (h *Handler) View(c *gin.Context) {
	var q Query
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, "Invalid query parameters", nil)
		return
	}

	view, err := h.service.View(c.Request.Context(), middleware.Scope(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *Handler) Export(c *gin.Context) {
	var q Query
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, "Invalid query parameters", nil)
		return
	}

	body, err := h.service.ICS(c.Request.Context(), middleware.Scope(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bookings.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.ValidationError(c, err.Error(), nil)
	case errors.Is(err, ErrVenueNotFound):
		response.NotFound(c, "VENUE_NOT_FOUND", "Venue not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Vendor scope required")
	default:
		_ = c.Error(err)
		response.Internal(c, "Failed to build calendar")
	}
}
