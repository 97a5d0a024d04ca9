package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bookd/internal/bookings"
	"bookd/internal/metrics"
	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/middleware"
	"bookd/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

type Service interface {
	CreateCheckoutSession(ctx context.Context, caller middleware.Principal, reservationID uuid.UUID) (*CheckoutSessionResponse, error)
	PublishableKey() string
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type service struct {
	bookings       bookings.Service
	provider       CheckoutProvider
	verifier       *WebhookVerifier
	publishableKey string
	logger         *logger.Logger
}

// NewService wires checkout and webhook handling. A nil provider disables checkout.
func NewService(bookingService bookings.Service, provider CheckoutProvider, verifier *WebhookVerifier, publishableKey string) Service {
	return &service{
		bookings:       bookingService,
		provider:       provider,
		verifier:       verifier,
		publishableKey: publishableKey,
		logger:         logger.GetDefault().WithComponent("payments"),
	}
}

func (s *service) PublishableKey() string {
	return s.publishableKey
}

func (s *service) CreateCheckoutSession(ctx context.Context, caller middleware.Principal, reservationID uuid.UUID) (*CheckoutSessionResponse, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: checkout is not configured", apperrors.ErrPaymentProviderDown)
	}

	details, err := s.bookings.PrepareCheckout(ctx, caller, reservationID)
	if err != nil {
		return nil, err
	}

	// One payable session per hold: hand back the open one instead of opening another
	if details.CheckoutSessionID != "" {
		existing, err := s.provider.GetCheckoutSession(ctx, details.CheckoutSessionID)
		if err != nil {
			return nil, err
		}
		switch existing.Status {
		case SessionOpen:
			return toCheckoutResponse(existing), nil
		case SessionComplete:
			return nil, fmt.Errorf("%w: payment already submitted, awaiting confirmation", apperrors.ErrInvalidState)
		}
	}

	session, err := s.provider.CreateCheckoutSession(ctx, details)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.AttachCheckoutSession(ctx, details.HoldID, details.CheckoutSessionID, session.ID); err != nil {
		// A concurrent request attached its own session; close ours so it cannot be paid
		if expireErr := s.provider.ExpireCheckoutSession(ctx, session.ID); expireErr != nil {
			s.logger.WithError(expireErr).ErrorContext(ctx, "orphaned checkout session left open",
				"reservation_id", reservationID.String(), "session_id", session.ID)
		}
		return nil, err
	}

	return toCheckoutResponse(session), nil
}

func toCheckoutResponse(session *CheckoutSession) *CheckoutSessionResponse {
	return &CheckoutSessionResponse{SessionID: session.ID, URL: session.URL, ExpiresAt: session.ExpiresAt}
}

// HandleWebhook verifies and applies one provider event. Events that can never
// succeed on retry are acknowledged; anything else returns an error so the
// provider redelivers.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.verifier.Verify(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", OutcomeRejected).Inc()
		return nil, err
	}

	result := &WebhookResult{EventID: event.ID, Type: string(event.Type)}
	outcome, err := s.dispatch(ctx, event)
	switch {
	case err == nil:
		result.Outcome = outcome
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrInvalidState):
		s.logger.WarnContext(ctx, "webhook event ignored", "event_id", event.ID, "type", string(event.Type), "reason", err.Error())
		result.Outcome = OutcomeIgnored
	default:
		metrics.WebhookEvents.WithLabelValues(string(event.Type), OutcomeError).Inc()
		s.logger.WithError(err).ErrorContext(ctx, "webhook processing failed", "event_id", event.ID, "type", string(event.Type))
		return nil, err
	}

	metrics.WebhookEvents.WithLabelValues(string(event.Type), result.Outcome).Inc()
	return result, nil
}

func (s *service) dispatch(ctx context.Context, event stripe.Event) (string, error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return "", err
		}
		// Delayed payment methods complete the session before the money arrives
		if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return OutcomeIgnored, nil
		}
		return s.confirm(ctx, session)

	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		session, err := decodeSession(event)
		if err != nil {
			return "", err
		}
		reservationID, _, err := sessionTarget(session)
		if err != nil {
			return "", err
		}
		transition, err := s.bookings.FailPayment(ctx, reservationID, bookings.ReasonPaymentFailed)
		if err != nil {
			return "", err
		}
		if !transition.Changed {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, nil

	default:
		return OutcomeIgnored, nil
	}
}

func (s *service) confirm(ctx context.Context, session *stripe.CheckoutSession) (string, error) {
	reservationID, holdID, err := sessionTarget(session)
	if err != nil {
		return "", err
	}

	reference := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		reference = session.PaymentIntent.ID
	}

	transition, err := s.bookings.ConfirmPayment(ctx, bookings.PaymentConfirmation{
		ReservationID:    reservationID,
		HoldID:           holdID,
		PaymentReference: reference,
		SessionID:        session.ID,
		AmountPaid:       decimal.New(session.AmountTotal, -2),
	})
	if err != nil {
		return "", err
	}

	switch {
	case !transition.Changed:
		return OutcomeDuplicate, nil
	case transition.Reason == bookings.ReasonSeatsReleased:
		return OutcomeLate, nil
	default:
		return OutcomeConfirmed, nil
	}
}

func decodeSession(event stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if event.Data == nil {
		return nil, apperrors.Invalid("event %s has no data", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, apperrors.Invalid("event %s is not a checkout session", event.ID)
	}
	return &session, nil
}

// sessionTarget reads the reservation and hold ids stamped on the session at creation
func sessionTarget(session *stripe.CheckoutSession) (uuid.UUID, uuid.UUID, error) {
	raw := session.Metadata["reservation_id"]
	if raw == "" {
		raw = session.ClientReferenceID
	}
	reservationID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.Invalid("session %s carries no reservation id", session.ID)
	}

	holdID := uuid.Nil
	if rawHold := session.Metadata["hold_id"]; rawHold != "" {
		if holdID, err = uuid.Parse(rawHold); err != nil {
			return uuid.Nil, uuid.Nil, apperrors.Invalid("session %s carries a malformed hold id", session.ID)
		}
	}
	return reservationID, holdID, nil
}
