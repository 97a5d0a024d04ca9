package bookings

import (
	"bookd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes.
// bookingLimit guards seat submission more tightly than the read routes.
func SetupBookingRoutes(rg *gin.RouterGroup, controller Controller, jwtSecret string, bookingLimit gin.HandlerFunc) {
	if bookingLimit == nil {
		bookingLimit = func(c *gin.Context) { c.Next() }
	}

	// Seat map data is public so the picker can render before login
	rg.GET("/bookings/availability/:eventId/:venueId", controller.GetAvailability)

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(jwtSecret))
	{
		bookings.POST("", bookingLimit, controller.CreateBooking)                        // POST /api/v1/bookings
		bookings.GET("/event/:eventId", controller.ListEventBookings)                    // GET /api/v1/bookings/event/:eventId
		bookings.GET("/event/:eventId/:venueId", controller.ListEventBookings)           // GET /api/v1/bookings/event/:eventId/:venueId
		bookings.GET("/event/:eventId/:venueId/:timingId", controller.ListEventBookings) // GET /api/v1/bookings/event/:eventId/:venueId/:timingId
		bookings.GET("/user/:userId", controller.ListUserBookings)                       // GET /api/v1/bookings/user/:userId
		bookings.GET("/all", middleware.RequireAdmin(), controller.ListAllBookings)      // GET /api/v1/bookings/all
	}

	reservations := rg.Group("/reservations")
	reservations.Use(middleware.JWTAuth(jwtSecret))
	{
		reservations.GET("/:id", controller.GetReservation)            // GET /api/v1/reservations/:id
		reservations.POST("/:id/cancel", controller.CancelReservation) // POST /api/v1/reservations/:id/cancel
	}
}
