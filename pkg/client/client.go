// Package client is a typed Go client for the BOOKD HTTP API.
//
// Authentication state lives in a Session value that the caller owns and
// passes to every authenticated call. The Client itself holds no user state,
// so one Client can serve many sessions concurrently.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookd/internal/auth"
	"bookd/internal/bookings"
	"bookd/internal/payments"
	"bookd/internal/shared/apperrors"

	"github.com/google/uuid"
)

// Session is the authenticated state returned by Login and Register
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       uuid.UUID
	Role         string
	ExpiresAt    time.Time
}

// Expired reports whether the access token has run out at now
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client for an API base such as http://localhost:8080/api/v1.
// A nil httpClient gets a 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// APIError is a non-2xx response decoded from the standard envelope
type APIError struct {
	StatusCode       int
	Message          string
	ConflictingSeats []string
}

func (e *APIError) Error() string {
	if len(e.ConflictingSeats) > 0 {
		return fmt.Sprintf("bookd: %d %s: %s", e.StatusCode, e.Message, strings.Join(e.ConflictingSeats, ", "))
	}
	return fmt.Sprintf("bookd: %d %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match server errors with errors.Is against the apperrors sentinels
func (e *APIError) Unwrap() error {
	switch {
	case len(e.ConflictingSeats) > 0:
		return apperrors.ErrSeatConflict
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return apperrors.ErrInvalidState
	case e.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return apperrors.ErrForbidden
	case e.StatusCode == http.StatusServiceUnavailable:
		return apperrors.ErrPaymentProviderDown
	case e.StatusCode == http.StatusBadRequest:
		return apperrors.ErrInvalidInput
	default:
		return nil
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func (c *Client) do(ctx context.Context, session *Session, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: unreadable response (status %d): %w", method, path, resp.StatusCode, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		var details struct {
			ConflictingSeats []string `json:"conflictingSeats"`
		}
		if len(env.Errors) > 0 && json.Unmarshal(env.Errors, &details) == nil {
			apiErr.ConflictingSeats = details.ConflictingSeats
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode data: %w", method, path, err)
	}
	return nil
}

func newSession(resp *auth.AuthResponse, now time.Time) (*Session, error) {
	userID, err := uuid.Parse(resp.User.ID)
	if err != nil {
		return nil, fmt.Errorf("server returned malformed user id %q", resp.User.ID)
	}
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       userID,
		Role:         resp.User.Role,
		ExpiresAt:    now.Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp auth.AuthResponse
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login", auth.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return newSession(&resp, time.Now())
}

func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) (*Session, error) {
	var resp auth.AuthResponse
	if err := c.do(ctx, nil, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return newSession(&resp, time.Now())
}

// Refresh returns a new session with rotated tokens; the old one is left untouched
func (c *Client) Refresh(ctx context.Context, session *Session) (*Session, error) {
	if session == nil {
		return nil, errors.New("bookd: refresh needs a session")
	}
	var tokens auth.TokenPair
	err := c.do(ctx, nil, http.MethodPost, "/auth/refresh", auth.RefreshTokenRequest{RefreshToken: session.RefreshToken}, &tokens)
	if err != nil {
		return nil, err
	}
	next := *session
	next.AccessToken = tokens.AccessToken
	next.RefreshToken = tokens.RefreshToken
	next.ExpiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	return &next, nil
}

func (c *Client) CreateBooking(ctx context.Context, session *Session, req bookings.CreateBookingRequest) (*bookings.BookingCreatedResponse, error) {
	var resp bookings.BookingCreatedResponse
	if err := c.do(ctx, session, http.MethodPost, "/bookings", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetReservation(ctx context.Context, session *Session, id uuid.UUID) (*bookings.ReservationResponse, error) {
	var resp bookings.ReservationResponse
	if err := c.do(ctx, session, http.MethodGet, "/reservations/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelReservation(ctx context.Context, session *Session, id uuid.UUID) (*bookings.ReservationResponse, error) {
	var resp bookings.ReservationResponse
	if err := c.do(ctx, session, http.MethodPost, "/reservations/"+id.String()+"/cancel", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MyBookings lists the confirmed bookings of the session's user
func (c *Client) MyBookings(ctx context.Context, session *Session) ([]bookings.BookingView, error) {
	var views []bookings.BookingView
	if err := c.do(ctx, session, http.MethodGet, "/bookings/user/"+session.UserID.String(), nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// Availability is public; timingID may be nil
func (c *Client) Availability(ctx context.Context, eventID, venueID uuid.UUID, timingID *uuid.UUID) (*bookings.AvailabilityResponse, error) {
	path := "/bookings/availability/" + eventID.String() + "/" + venueID.String()
	if timingID != nil {
		path += "?" + url.Values{"timingId": {timingID.String()}}.Encode()
	}
	var resp bookings.AvailabilityResponse
	if err := c.do(ctx, nil, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, session *Session, reservationID uuid.UUID) (*payments.CheckoutSessionResponse, error) {
	var resp payments.CheckoutSessionResponse
	req := payments.CreateCheckoutSessionRequest{ReservationID: reservationID.String()}
	if err := c.do(ctx, session, http.MethodPost, "/payments/checkout-session", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
