package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookd/api/routes"
	"bookd/internal/bookings"
	"bookd/internal/metrics"
	"bookd/internal/migrations"
	"bookd/internal/notifications"
	"bookd/internal/shared/config"
	"bookd/internal/shared/database"
	"bookd/pkg/logger"
	"bookd/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title BOOKD API
// @version 1.0
// @description Seat reservation backend: catalog, booking ledger and Stripe checkout.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	logger.SetDefault(logger.NewWithWriter(os.Stdout, cfg.LogLevel))
	appLogger = logger.GetDefault()

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to initialise storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Migrate(db.PostgreSQL); err != nil {
		appLogger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, cfg.RateLimit)
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
			slog.Int("booking_requests", cfg.RateLimit.BookingCriticalRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	publisher, err := notifications.NewPublisher(cfg.Kafka)
	if err != nil {
		appLogger.Error("Failed to connect to Kafka, reservation events will only be logged", slog.Any("error", err))
		publisher = notifications.NewLogPublisher()
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Error closing reservation publisher", slog.Any("error", err))
		}
	}()

	engine, appRouter, err := setupRouter(cfg, db, rateLimiter, publisher)
	if err != nil {
		appLogger.Error("failed to build router", slog.Any("error", err))
		os.Exit(1)
	}

	// Expire unpaid reservations in the background
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	sweeper := bookings.NewExpirySweeper(appRouter.BookingService(), cfg.Booking.SweepInterval)
	sweeper.Start(sweeperCtx)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.Bool("redis_cache", db.Redis != nil),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("stripe", cfg.Stripe.SecretKey != ""),
			slog.Duration("hold_ttl", cfg.Booking.HoldTTL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	sweeperCancel()
	sweeper.Stop()

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, publisher notifications.Publisher) (*gin.Engine, *routes.Router, error) {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Client IPs feed the rate limiter; only listed proxies may set X-Forwarded-For
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery(), metrics.Middleware())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter := routes.NewRouter(cfg, db, rateLimiter, publisher)
	appRouter.SetupRoutes(engine)

	return engine, appRouter, nil
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.LogHTTPRequest(c, time.Since(start))
	}
}
