package analytics

import (
	"bookd/internal/shared/middleware"
	"bookd/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	admin := rg.Group("/admin/analytics")
	admin.Use(middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	{
		admin.GET("/dashboard", controller.GetDashboard)
	}

	organiser := rg.Group("/analytics")
	organiser.Use(middleware.JWTAuth(jwtSecret), middleware.RequireRoles(users.RoleOrganiser, users.RoleAdmin))
	{
		organiser.GET("/events/:eventId", controller.GetEventAnalytics)
	}
}
