package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"bookd/internal/shared/middleware"
	"bookd/internal/shared/utils/response"
	"bookd/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits every request by client IP, picking the bucket from the route.
// The IP comes from gin, so forwarding headers count only from the engine's trusted proxies.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, rateLimiter, c.ClientIP(), getRateLimitType(c.FullPath()))
	}
}

// PerUser limits authenticated callers by user id, falling back to the client IP.
// Mount it after JWTAuth.
func PerUser(rateLimiter *RateLimiter, limitType RateLimitType) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "anon:" + c.ClientIP()
		if caller, ok := middleware.CurrentUser(c); ok {
			subject = "user:" + caller.ID.String()
		}
		enforce(c, rateLimiter, subject, limitType)
	}
}

func enforce(c *gin.Context, rateLimiter *RateLimiter, subject string, limitType RateLimitType) {
	result, err := rateLimiter.IsAllowed(c.Request.Context(), subject, limitType)
	if err != nil {
		// Redis being down should not take bookings down with it
		logger.GetDefault().WithError(err).WarnContext(c.Request.Context(), "rate limit check failed", "subject", subject)
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

	if !result.Allowed {
		logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), c.ClientIP(), c.FullPath())
		response.RespondJSON(c, "error", http.StatusTooManyRequests,
			"Rate limit exceeded", nil, map[string]interface{}{
				"limit":      result.Limit,
				"reset_time": result.ResetTime,
			})
		c.Abort()
		return
	}

	c.Next()
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"),
		strings.HasPrefix(path, "/metrics"):
		return RateLimitTypeHealth

	// Stripe retries on 429, never throttle it
	case strings.HasSuffix(path, "/payments/webhook"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	case strings.Contains(path, "/reservations/") && strings.HasSuffix(path, "/cancel"),
		strings.Contains(path, "/payments/checkout-session"):
		return RateLimitTypeBookingCritical

	case strings.Contains(path, "/bookings"),
		strings.Contains(path, "/reservations"),
		strings.Contains(path, "/payments"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/events"):
		return RateLimitTypePublic

	case strings.Contains(path, "/users/"),
		strings.Contains(path, "/wishlist"),
		strings.Contains(path, "/companies"):
		return RateLimitTypeUser

	default:
		return RateLimitTypeDefault
	}
}
