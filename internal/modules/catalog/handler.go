package catalog

import (
	"errors"
	"net/http"
	"strconv"

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, vendor *gin.RouterGroup) {
	rg.GET("/venues", h.ListVenues)
	rg.GET("/venues/:id", h.GetVenue)

	vendor.POST("/venues", h.CreateVenue)
	vendor.POST("/venues/:id/courts", h.CreateCourt)
}

// ListVenues handles GET /venues for the tenant resolved from the host or token.
func (h *Handler) ListVenues(c *gin.Context) {
	out, err := h.service.ListVenues(c.Request.Context(), middleware.Scope(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"venues": out})
}

func (h *Handler) GetVenue(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := h.service.GetVenue(c.Request.Context(), middleware.Scope(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"venue": out})
}

func (h *Handler) CreateVenue(c *gin.Context) {
	var req CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", nil)
		return
	}
	out, err := h.service.CreateVenue(c.Request.Context(), middleware.Scope(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"venue": out})
}

func (h *Handler) CreateCourt(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CreateCourtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", nil)
		return
	}
	out, err := h.service.CreateCourt(c.Request.Context(), middleware.Scope(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"court": out})
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationError(c, "Invalid venue data", verr.Fields)
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "VENUE_NOT_FOUND", "Venue not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Vendor scope required")
	default:
		_ = c.Error(err)
		response.Internal(c, "Failed to process venue")
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
