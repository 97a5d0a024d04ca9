package events

import (
	"bookd/internal/shared/middleware"
	"bookd/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller, jwtSecret string) {
	// Public routes - anyone can browse the catalog
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.ListEvents)                        // GET /api/v1/events
		publicEvents.GET("/:eventId", controller.GetEvent)                 // GET /api/v1/events/:eventId
		publicEvents.GET("/:eventId/venues/:venueId", controller.GetVenue) // GET /api/v1/events/:eventId/venues/:venueId
	}

	// Organiser routes - verified organisers manage their own events
	organiserEvents := router.Group("/organiser/events")
	organiserEvents.Use(middleware.JWTAuth(jwtSecret), middleware.RequireRoles(users.RoleOrganiser, users.RoleAdmin))
	{
		organiserEvents.GET("", controller.ListOrganiserEvents)
		organiserEvents.POST("", controller.CreateEvent)
		organiserEvents.POST("/:eventId/venues", controller.AddVenue)
		organiserEvents.POST("/:eventId/venues/:venueId/timings", controller.AddTiming)
		organiserEvents.DELETE("/:eventId", controller.DeleteEvent)
	}
}
