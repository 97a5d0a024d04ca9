package payments

import (
	"bookd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures checkout and webhook routes. The webhook is
// authenticated by its signature, not by a session.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	payments := rg.Group("/payments")
	{
		payments.GET("/stripe-key", controller.GetStripeKey)
		payments.POST("/webhook", controller.Webhook)
		payments.POST("/checkout-session", middleware.JWTAuth(jwtSecret), controller.CreateCheckoutSession)
	}
}
