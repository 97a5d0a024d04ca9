package companies

import (
	"bookd/internal/shared/middleware"
	"bookd/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupCompanyRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	companies := rg.Group("/companies")
	companies.Use(middleware.JWTAuth(jwtSecret), middleware.RequireRoles(users.RoleOrganiser))
	{
		companies.POST("", controller.Register)
		companies.GET("/me", controller.GetMine)
	}

	admin := rg.Group("/admin/companies")
	admin.Use(middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	{
		admin.GET("", controller.List)
		admin.PATCH("/:id/verify", controller.Verify)
	}
}
