package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"bookd/internal/shared/config"
	"bookd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:                 true,
		WindowDuration:          time.Minute,
		DefaultRequests:         60,
		BookingRequests:         30,
		BookingCriticalRequests: 2,
		HealthRequests:          300,
		WhitelistedIPs:          []string{"10.0.0.1"},
	}
}

func newLimiter(t *testing.T) (*RateLimiter, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, testConfig())
	limiter.now = func() time.Time { return fixedNow }
	return limiter, mock
}

func expectEval(mock redismock.ClientMock, subject string, limitType RateLimitType, limit int) *redismock.ExpectedCmd {
	return mock.ExpectEval(slidingWindow, []string{Key(subject, limitType)},
		fixedNow.Add(-time.Minute).UnixMilli(),
		fixedNow.UnixMilli(),
		limit,
		time.Minute.Milliseconds(),
		strconv.FormatInt(fixedNow.UnixNano(), 10),
	)
}

func TestIsAllowed(t *testing.T) {
	limiter, mock := newLimiter(t)
	ctx := context.Background()

	expectEval(mock, "1.2.3.4", RateLimitTypeBooking, 30).SetVal([]interface{}{int64(1), int64(3)})
	expectEval(mock, "1.2.3.4", RateLimitTypeBookingCritical, 2).SetVal([]interface{}{int64(0), int64(2)})

	result, err := limiter.IsAllowed(ctx, "1.2.3.4", RateLimitTypeBooking)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 27, result.Remaining)

	result, err = limiter.IsAllowed(ctx, "1.2.3.4", RateLimitTypeBookingCritical)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsAllowedSkipsRedis(t *testing.T) {
	limiter, mock := newLimiter(t)

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeBooking)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	disabled := NewRateLimiter(nil, testConfig())
	result, err = disabled.IsAllowed(context.Background(), "1.2.3.4", RateLimitTypeBooking)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 30, result.Limit)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerUserMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, mock := newLimiter(t)
	userID := uuid.New()
	subject := "user:" + userID.String()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID.String())
		c.Next()
	})
	r.POST("/bookings", PerUser(limiter, RateLimitTypeBookingCritical), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	expectEval(mock, subject, RateLimitTypeBookingCritical, 2).SetVal([]interface{}{int64(1), int64(2)})
	expectEval(mock, subject, RateLimitTypeBookingCritical, 2).SetVal([]interface{}{int64(0), int64(2)})
	expectEval(mock, subject, RateLimitTypeBookingCritical, 2).SetErr(errors.New("connection refused"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// fails open
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRateLimitType(t *testing.T) {
	tests := []struct {
		path string
		want RateLimitType
	}{
		{"/health", RateLimitTypeHealth},
		{"/api/v1/payments/webhook", RateLimitTypeHealth},
		{"/api/v1/admin/companies", RateLimitTypeAdmin},
		{"/api/v1/auth/login", RateLimitTypeAuth},
		{"/api/v1/reservations/:id/cancel", RateLimitTypeBookingCritical},
		{"/api/v1/payments/checkout-session", RateLimitTypeBookingCritical},
		{"/api/v1/bookings/user/:userId", RateLimitTypeBooking},
		{"/api/v1/events", RateLimitTypePublic},
		{"/api/v1/wishlist", RateLimitTypeUser},
		{"/unknown", RateLimitTypeDefault},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, getRateLimitType(tt.path))
		})
	}
}

func TestMiddlewareKeysBySocketPeerUnlessProxyIsTrusted(t *testing.T) {
	gin.SetMode(gin.TestMode)

	send := func(r *gin.Engine) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/all", nil)
		req.RemoteAddr = "198.51.100.4:4000"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		req.Header.Set("X-Real-IP", "203.0.113.8")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	newEngine := func(limiter *RateLimiter, proxies []string) *gin.Engine {
		r := gin.New()
		require.NoError(t, r.SetTrustedProxies(proxies))
		r.Use(Middleware(limiter))
		r.GET("/api/v1/bookings/all", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	// no trusted proxies: forwarding headers are ignored
	limiter, mock := newLimiter(t)
	expectEval(mock, "198.51.100.4", RateLimitTypeBooking, 30).SetVal([]interface{}{int64(1), int64(1)})
	assert.Equal(t, http.StatusOK, send(newEngine(limiter, nil)))
	assert.NoError(t, mock.ExpectationsWereMet())

	// behind a trusted proxy the forwarded client is limited
	limiter, mock = newLimiter(t)
	expectEval(mock, "203.0.113.7", RateLimitTypeBooking, 30).SetVal([]interface{}{int64(1), int64(1)})
	assert.Equal(t, http.StatusOK, send(newEngine(limiter, []string{"198.51.100.0/24"})))
	assert.NoError(t, mock.ExpectationsWereMet())
}
