package wishlist

import (
	"bookd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupWishlistRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	wishlist := rg.Group("/wishlist")
	wishlist.Use(middleware.JWTAuth(jwtSecret))
	{
		wishlist.GET("", controller.List)
		wishlist.POST("/:eventId", controller.Add)
		wishlist.DELETE("/:eventId", controller.Remove)
	}
}
