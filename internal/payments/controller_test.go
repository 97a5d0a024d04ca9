package payments

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookd/internal/shared/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func configWithoutKey() config.StripeConfig {
	return config.StripeConfig{PublishableKey: "pk_test_1"}
}

func newPaymentsRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupPaymentRoutes(r.Group("/api/v1"), NewController(svc), "secret")
	return r
}

func TestWebhookEndpoint(t *testing.T) {
	fake := &fakeBookings{}
	router := newPaymentsRouter(newTestService(fake, nil))

	payload, header := signedEvent(t, "checkout.session.completed", completedSession(uuid.New(), uuid.New()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, fake.confirmed, 1)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=0,v1=forged")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, fake.confirmed, 1)
}

func TestStripeKeyEndpoint(t *testing.T) {
	router := newPaymentsRouter(newTestService(&fakeBookings{}, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/stripe-key", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pk_test_1")
}

func TestCheckoutSessionRequiresAuth(t *testing.T) {
	router := newPaymentsRouter(newTestService(&fakeBookings{}, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout-session", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
