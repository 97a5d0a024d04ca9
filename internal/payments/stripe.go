package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookd/internal/bookings"
	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/config"
	"bookd/pkg/logger"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe refuses checkout sessions that expire sooner than this
const minSessionLifetime = 31 * time.Minute

// Checkout session states as reported by Stripe
const (
	SessionOpen     = string(stripe.CheckoutSessionStatusOpen)
	SessionComplete = string(stripe.CheckoutSessionStatusComplete)
	SessionExpired  = string(stripe.CheckoutSessionStatusExpired)
)

// CheckoutSession is the hosted payment page created for a hold
type CheckoutSession struct {
	ID        string
	URL       string
	Status    string
	ExpiresAt time.Time
}

// CheckoutProvider manages hosted checkout pages
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, details *bookings.CheckoutDetails) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, id string) error
}

// sessionCreator is the part of the Stripe client used for sessions
type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
}

// StripeProvider opens Stripe Checkout sessions behind a circuit breaker
type StripeProvider struct {
	sessions  sessionCreator
	clientURL string
	breaker   *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	logger    *logger.Logger
	now       func() time.Time
}

// NewStripeProvider returns nil when no secret key is configured
func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	if cfg.SecretKey == "" {
		return nil
	}
	sc := client.New(cfg.SecretKey, nil)
	return newStripeProvider(sc.CheckoutSessions, cfg.ClientURL)
}

func newStripeProvider(sessions sessionCreator, clientURL string) *StripeProvider {
	log := logger.GetDefault().WithComponent("stripe")
	settings := gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejected requests are our fault, not Stripe's
		IsSuccessful: func(err error) bool {
			var stripeErr *stripe.Error
			if errors.As(err, &stripeErr) {
				return stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &StripeProvider{
		sessions:  sessions,
		clientURL: strings.TrimRight(clientURL, "/"),
		breaker:   gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](settings),
		logger:    log,
		now:       time.Now,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, details *bookings.CheckoutDetails) (*CheckoutSession, error) {
	reservationID := details.ReservationID.String()
	expiresAt := details.ExpiresAt
	if earliest := p.now().Add(minSessionLifetime); expiresAt.Before(earliest) {
		expiresAt = earliest
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/booking/success?reservation=%s&session_id={CHECKOUT_SESSION_ID}", p.clientURL, reservationID)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/booking/cancelled?reservation=%s", p.clientURL, reservationID)),
		ClientReferenceID: stripe.String(reservationID),
		ExpiresAt:         stripe.Int64(expiresAt.Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(details.Currency),
					UnitAmount: stripe.Int64(details.UnitPrice.Shift(2).IntPart()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(details.EventName),
						Description: stripe.String(fmt.Sprintf("%s, seats %s", details.Location, strings.Join(details.Seats, ", "))),
					},
				},
				Quantity: stripe.Int64(int64(len(details.Seats))),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"reservation_id": reservationID,
				"hold_id":        details.HoldID.String(),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("reservation_id", reservationID)
	params.AddMetadata("hold_id", details.HoldID.String())
	params.AddMetadata("user_id", details.UserID.String())

	session, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.New(params)
	})
	if err != nil {
		p.logger.WithError(err).ErrorContext(ctx, "failed to create checkout session", "reservation_id", reservationID)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPaymentProviderDown, err)
	}

	p.logger.InfoContext(ctx, "checkout session created", "reservation_id", reservationID, "session_id", session.ID)
	return &CheckoutSession{ID: session.ID, URL: session.URL, Status: SessionOpen, ExpiresAt: expiresAt}, nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.Get(id, params)
	})
	if err != nil {
		p.logger.WithError(err).ErrorContext(ctx, "failed to fetch checkout session", "session_id", id)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPaymentProviderDown, err)
	}
	return &CheckoutSession{
		ID:        session.ID,
		URL:       session.URL,
		Status:    string(session.Status),
		ExpiresAt: time.Unix(session.ExpiresAt, 0).UTC(),
	}, nil
}

// ExpireCheckoutSession closes an open session so it can no longer be paid
func (p *StripeProvider) ExpireCheckoutSession(ctx context.Context, id string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	_, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.Expire(id, params)
	})
	if err != nil {
		p.logger.WithError(err).ErrorContext(ctx, "failed to expire checkout session", "session_id", id)
		return fmt.Errorf("%w: %v", apperrors.ErrPaymentProviderDown, err)
	}
	p.logger.InfoContext(ctx, "checkout session expired", "session_id", id)
	return nil
}

// WebhookVerifier checks the Stripe-Signature header of webhook deliveries
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify returns the decoded event, or ErrPaymentVerificationFailed
func (v *WebhookVerifier) Verify(payload []byte, signature string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, fmt.Errorf("%w: webhook secret is not configured", apperrors.ErrPaymentProviderDown)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", apperrors.ErrPaymentVerificationFailed, err)
	}
	return event, nil
}
