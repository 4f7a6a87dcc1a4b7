package live

import (
	"log/slog"
	"net/http"

	"courtbook/internal/middleware"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(hub *Hub, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are already filtered by the CORS middleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// RegisterRoutes mounts the dashboard socket on the vendor-only group.
func (h *Handler) RegisterRoutes(vendor *gin.RouterGroup) {
	vendor.GET("/vendor/live", h.Connect)
}

func (h *Handler) Connect(c *gin.Context) {
	scope := middleware.Scope(c)
	if !scope.IsScoped() {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Vendor token required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn("live: upgrade failed", slog.Int64("vendor_id", scope.VendorID), logger.Err(err))
		return
	}
	h.log.Info("live: dashboard connected", slog.Int64("vendor_id", scope.VendorID))
	h.hub.Serve(conn, scope.VendorID)
}
