package main

import (
	"log/slog"
	"net/http"

	"courtbook/internal/cache"
	"courtbook/internal/events"
	"courtbook/internal/middleware"
	"courtbook/internal/modules/availability"
	"courtbook/internal/modules/booking"
	"courtbook/internal/modules/calendar"
	"courtbook/internal/modules/catalog"
	"courtbook/internal/modules/conflict"
	"courtbook/internal/modules/live"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/response"
	"courtbook/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type deps struct {
	db      *gorm.DB
	venues  *cache.VenueCache
	tokens  *jwt.Service
	hub     *live.Hub
	pub     events.Publisher
	origins []string
	domain  string
	log     *slog.Logger
}

func newRouter(d deps) *gin.Engine {
	bookings := repository.NewBookingRepository(d.db)
	checker := availability.NewChecker(repository.NewSlotStore(d.db), d.venues, d.log)

	bookingHandler := booking.NewHandler(booking.NewService(bookings, d.venues, checker, d.pub, d.log))
	conflictHandler := conflict.NewHandler(conflict.NewService(repository.NewConflictRepository(d.db), d.venues))
	calendarHandler := calendar.NewHandler(calendar.NewService(bookings, d.venues))
	availabilityHandler := availability.NewHandler(checker, d.venues)
	catalogHandler := catalog.NewHandler(catalog.NewService(repository.NewVenueRepository(d.db), d.venues, d.log))
	liveHandler := live.NewHandler(d.hub, d.log)

	r := gin.New()
	r.Use(middleware.RequestLogger(d.log))
	r.Use(middleware.CORS(d.origins))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "Database unreachable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1", middleware.Tenant(d.venues, d.tokens, d.domain, d.log))
	vendor := v1.Group("", middleware.VendorOnly())

	bookingHandler.RegisterRoutes(v1, vendor)
	availabilityHandler.RegisterRoutes(v1)
	catalogHandler.RegisterRoutes(v1, vendor)
	conflictHandler.RegisterRoutes(vendor)
	calendarHandler.RegisterRoutes(vendor)
	liveHandler.RegisterRoutes(vendor)

	return r
}
