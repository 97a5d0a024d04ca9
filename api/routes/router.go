// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"bookd/internal/analytics"
	"bookd/internal/auth"
	"bookd/internal/bookings"
	"bookd/internal/companies"
	"bookd/internal/events"
	"bookd/internal/metrics"
	"bookd/internal/notifications"
	"bookd/internal/payments"
	"bookd/internal/shared/config"
	"bookd/internal/shared/database"
	"bookd/internal/users"
	"bookd/internal/wishlist"
	"bookd/pkg/cache"
	"bookd/pkg/ratelimit"

	_ "bookd/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config      *config.Config
	db          *database.DB
	rateLimiter *ratelimit.RateLimiter
	publisher   notifications.Publisher

	// Shared services, wired across packages
	cache           cache.Service
	userRepo        users.Repository
	eventService    events.Service
	companyService  companies.Service
	bookingService  bookings.Service
	checkoutService payments.Service
}

// NewRouter creates a new router instance. A nil rate limiter disables limiting.
func NewRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, publisher notifications.Publisher) *Router {
	return &Router{
		config:      cfg,
		db:          db,
		rateLimiter: rateLimiter,
		publisher:   publisher,
	}
}

// BookingService exposes the ledger for background jobs started by the server
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.buildServices()

	r.setupHealthRoutes(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupCompanyRoutes(api)
		r.setupEventRoutes(api)
		r.setupBookingRoutes(api)
		r.setupPaymentRoutes(api)
		r.setupWishlistRoutes(api)
		r.setupAnalyticsRoutes(api)
	}
}

// buildServices constructs the services shared between route groups
func (r *Router) buildServices() {
	pg := r.db.PostgreSQL

	if r.db.Redis != nil {
		r.cache = cache.NewService(r.db.Redis, cache.WithMaxTTL(r.config.Redis.CacheTTL))
	}

	r.userRepo = users.NewRepository(pg)
	r.companyService = companies.NewService(companies.NewRepository(pg))
	r.eventService = events.NewService(events.NewRepository(pg), r.cache)

	r.bookingService = bookings.NewService(bookings.NewRepository(pg), r.eventService, r.userRepo, r.config.Booking)
	if r.publisher != nil {
		r.bookingService.SetPublisher(r.publisher)
	}

	// Event creation needs a verified company; deletion needs no live reservations
	r.eventService.SetOrganiserVerifier(r.companyService)
	r.eventService.SetReservationCounter(r.bookingService)

	var provider payments.CheckoutProvider
	if stripeProvider := payments.NewStripeProvider(r.config.Stripe); stripeProvider != nil {
		provider = stripeProvider
	}
	r.checkoutService = payments.NewService(
		r.bookingService,
		provider,
		payments.NewWebhookVerifier(r.config.Stripe.WebhookSecret),
		r.config.Stripe.PublishableKey,
	)
}

func (r *Router) limit(limitType ratelimit.RateLimitType) gin.HandlerFunc {
	if r.rateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return ratelimit.PerUser(r.rateLimiter, limitType)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "bookd-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "bookd-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "operational",
			"api_version":   r.config.APIVersion,
			"rate_limiting": r.rateLimiter != nil,
			"timestamp":     time.Now(),
		})
	})

	engine.GET("/metrics", metrics.Handler())
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authService := auth.NewService(r.userRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config.JWT.Secret)

	// the global limiter already buckets /auth by client IP
	authRouter.SetupRoutes(rg, func(c *gin.Context) { c.Next() })
}

func (r *Router) setupCompanyRoutes(rg *gin.RouterGroup) {
	companies.SetupCompanyRoutes(rg, companies.NewController(r.companyService), r.config.JWT.Secret)
}

// setupEventRoutes configures catalog browsing and organiser management routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	events.SetupEventRoutes(rg, events.NewController(r.eventService), r.config.JWT.Secret)
}

// setupBookingRoutes configures reservation routes; creating a booking gets its own per-user limit
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookings.SetupBookingRoutes(rg, bookings.NewController(r.bookingService), r.config.JWT.Secret,
		r.limit(ratelimit.RateLimitTypeBookingCritical))
}

func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	payments.SetupPaymentRoutes(rg, payments.NewController(r.checkoutService), r.config.JWT.Secret)
}

func (r *Router) setupWishlistRoutes(rg *gin.RouterGroup) {
	wishlistService := wishlist.NewService(wishlist.NewRepository(r.db.PostgreSQL), r.eventService)
	wishlist.SetupWishlistRoutes(rg, wishlist.NewController(wishlistService), r.config.JWT.Secret)
}

func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	analyticsService := analytics.NewService(analytics.NewRepository(r.db.PostgreSQL), r.eventService, r.cache)
	analytics.SetupAnalyticsRoutes(rg, analytics.NewController(analyticsService), r.config.JWT.Secret)
}
