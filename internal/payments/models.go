package payments

import "time"

type CreateCheckoutSessionRequest struct {
	ReservationID string `json:"reservationId" binding:"required,uuid"`
}

type CheckoutSessionResponse struct {
	SessionID string    `json:"sessionId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type StripeKeyResponse struct {
	PublishableKey string `json:"publishableKey"`
}

// Webhook outcomes, also used as metric labels
const (
	OutcomeConfirmed = "confirmed"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeLate      = "late"
	OutcomeIgnored   = "ignored"
	OutcomeError     = "error"
	OutcomeRejected  = "rejected"
)

// WebhookResult is returned to the provider once an event has been handled
type WebhookResult struct {
	EventID string `json:"eventId"`
	Type    string `json:"type"`
	Outcome string `json:"outcome"`
}
