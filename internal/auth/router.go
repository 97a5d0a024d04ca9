package auth

import (
	"bookd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller *Controller
	jwtSecret  string
}

// NewRouter creates a new auth router
func NewRouter(controller *Controller, jwtSecret string) *Router {
	return &Router{
		controller: controller,
		jwtSecret:  jwtSecret,
	}
}

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	auth := rg.Group("/auth")
	auth.Use(limit)
	{
		auth.POST("/register", authRouter.controller.Register)
		auth.POST("/login", authRouter.controller.Login)
		auth.POST("/refresh", authRouter.controller.RefreshToken)

		protected := auth.Group("")
		protected.Use(middleware.JWTAuth(authRouter.jwtSecret))
		{
			protected.PUT("/change-password", authRouter.controller.ChangePassword)
			protected.GET("/me", authRouter.controller.GetMe)
		}
	}
}
