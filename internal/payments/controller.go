package payments

import (
	"io"
	"net/http"

	"bookd/internal/shared/middleware"
	"bookd/internal/shared/utils/response"
	"bookd/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Stripe keeps webhook payloads well under this
const maxWebhookBody = 64 << 10

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateCheckoutSession godoc
// @Summary Open a hosted checkout page for a pending reservation
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCheckoutSessionRequest true "Reservation to pay for"
// @Success 201 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 503 {object} response.StandardApiResponse
// @Router /payments/checkout-session [post]
func (ctrl *Controller) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, _ := middleware.CurrentUser(c)
	session, err := ctrl.service.CreateCheckoutSession(c.Request.Context(), caller, uuid.MustParse(req.ReservationID))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Checkout session created", session, nil)
}

func (ctrl *Controller) GetStripeKey(c *gin.Context) {
	response.RespondJSON(c, "success", http.StatusOK, "Stripe key retrieved", StripeKeyResponse{PublishableKey: ctrl.service.PublishableKey()}, nil)
}

// Webhook godoc
// @Summary Stripe webhook receiver
// @Tags payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Router /payments/webhook [post]
func (ctrl *Controller) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid webhook payload", nil, nil)
		return
	}

	result, err := ctrl.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if response.StatusFor(err) == http.StatusBadRequest {
			logger.GetDefault().LogWebhookRejected(c.Request.Context(), err.Error(), c.ClientIP())
		}
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Webhook processed", result, nil)
}
