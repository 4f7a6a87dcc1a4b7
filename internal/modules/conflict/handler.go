package conflict

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

// RegisterRoutes expects a group already restricted to vendor tokens.
func (h *Handler) RegisterRoutes(vendor *gin.RouterGroup) {
	vendor.POST("/venues/:id/conflicts", h.Create)
	vendor.GET("/venues/:id/conflicts", h.List)
	vendor.DELETE("/conflicts/:id", h.Deactivate)
}

func (h *Handler) Create(c *gin.Context) {
	venueID, ok := idParam(c)
	if !ok {
		return
	}
	var req CreateConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", nil)
		return
	}

	out, err := h.service.Create(c.Request.Context(), middleware.Scope(c), venueID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"conflict": out})
}

func (h *Handler) List(c *gin.Context) {
	venueID, ok := idParam(c)
	if !ok {
		return
	}
	activeOnly := c.Query("active") == "true"

	out, err := h.service.List(c.Request.Context(), middleware.Scope(c), venueID, activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"conflicts": out})
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), middleware.Scope(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "status": "inactive"})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.ValidationError(c, err.Error(), nil)
	case errors.Is(err, ErrVenueNotFound):
		response.NotFound(c, "VENUE_NOT_FOUND", "Venue not found")
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "NOT_FOUND", "Conflict not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Vendor scope required")
	default:
		_ = c.Error(err)
		response.Internal(c, "Failed to process conflict")
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
