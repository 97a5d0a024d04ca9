package bookings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bookd/internal/events"
	"bookd/internal/metrics"
	"bookd/internal/notifications"
	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/config"
	"bookd/internal/shared/middleware"
	"bookd/internal/users"
	"bookd/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var seatLabelPattern = regexp.MustCompile(`^[A-Z]{1,3}-?[0-9]{1,4}$`)

// CatalogService interface for catalog lookups (to avoid circular dependency)
type CatalogService interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
	GetVenue(ctx context.Context, eventID, venueID uuid.UUID) (*events.Venue, error)
	GetTiming(ctx context.Context, venueID, timingID uuid.UUID) (*events.Timing, error)
}

// UserDirectory resolves seat holders
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*users.User, error)
}

type Service interface {
	SetPublisher(publisher notifications.Publisher)

	// Booking submission and holder actions
	CreateBooking(ctx context.Context, caller middleware.Principal, req CreateBookingRequest) (*BookingCreatedResponse, error)
	GetReservation(ctx context.Context, caller middleware.Principal, id uuid.UUID) (*ReservationResponse, error)
	CancelReservation(ctx context.Context, caller middleware.Principal, id uuid.UUID) (*ReservationResponse, error)

	// Payment flow
	PrepareCheckout(ctx context.Context, caller middleware.Principal, reservationID uuid.UUID) (*CheckoutDetails, error)
	AttachCheckoutSession(ctx context.Context, holdID uuid.UUID, previous, sessionID string) error
	ConfirmPayment(ctx context.Context, payment PaymentConfirmation) (*Transition, error)
	FailPayment(ctx context.Context, reservationID uuid.UUID, reason string) (*Transition, error)

	// Ledger views
	ListEventBookings(ctx context.Context, eventID uuid.UUID, venueID, timingID *uuid.UUID) ([]BookingView, error)
	ListUserBookings(ctx context.Context, caller middleware.Principal, userID uuid.UUID) ([]BookingView, error)
	ListAllBookings(ctx context.Context) ([]BookingView, error)
	Availability(ctx context.Context, eventID, venueID uuid.UUID, timingID *uuid.UUID) (*AvailabilityResponse, error)

	// Expiry
	ExpireDue(ctx context.Context) (int, error)
	CountLiveForEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
}

type service struct {
	repo      Repository
	catalog   CatalogService
	users     UserDirectory
	publisher notifications.Publisher
	cfg       config.BookingConfig
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, catalog CatalogService, userDirectory UserDirectory, cfg config.BookingConfig) Service {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 15 * time.Minute
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 100
	}
	if cfg.Currency == "" {
		cfg.Currency = "inr"
	}
	return &service{
		repo:    repo,
		catalog: catalog,
		users:   userDirectory,
		cfg:     cfg,
		logger:  logger.GetDefault().WithComponent("bookings"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) SetPublisher(publisher notifications.Publisher) {
	s.publisher = publisher
}

// show is a resolved catalog target for a booking
type show struct {
	event    *events.Event
	venue    *events.Venue
	timing   *events.Timing
	capacity int
}

func (s *service) resolveShow(ctx context.Context, eventID, venueID uuid.UUID, timingID *uuid.UUID) (*show, error) {
	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	venue, err := s.catalog.GetVenue(ctx, eventID, venueID)
	if err != nil {
		return nil, err
	}

	resolved := &show{event: event, venue: venue, capacity: venue.TotalSeats}
	// A venue with showtimes has no timing-less seat namespace
	if timingID == nil && len(venue.Timings) > 0 {
		return nil, apperrors.Invalid("timingId is required for this venue")
	}
	if timingID != nil {
		timing, err := s.catalog.GetTiming(ctx, venueID, *timingID)
		if err != nil {
			return nil, err
		}
		resolved.timing = timing
		resolved.capacity = timing.TotalSeats
	}
	return resolved, nil
}

// NormaliseSeats trims, upper-cases and de-duplicates seat labels, keeping request order
func NormaliseSeats(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, apperrors.Invalid("at least one seat is required")
	}

	seen := make(map[string]struct{}, len(raw))
	seats := make([]string, 0, len(raw))
	for _, label := range raw {
		label = strings.ToUpper(strings.TrimSpace(label))
		if !seatLabelPattern.MatchString(label) {
			return nil, apperrors.Invalid("seat label %q is not valid", label)
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		seats = append(seats, label)
	}
	return seats, nil
}

func parseOptionalID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperrors.Invalid("%s is not a valid id", field)
	}
	return &id, nil
}

func (s *service) CreateBooking(ctx context.Context, caller middleware.Principal, req CreateBookingRequest) (*BookingCreatedResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperrors.Invalid("eventId is not a valid id")
	}
	venueID, err := uuid.Parse(req.VenueID)
	if err != nil {
		return nil, apperrors.Invalid("venueId is not a valid id")
	}
	timingID, err := parseOptionalID(req.TimingID, "timingId")
	if err != nil {
		return nil, err
	}
	holderID, err := parseOptionalID(req.UserID, "userId")
	if err != nil {
		return nil, err
	}
	if holderID == nil {
		holderID = &caller.ID
	}
	if *holderID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: cannot book on behalf of another user", apperrors.ErrForbidden)
	}

	seats, err := NormaliseSeats(req.Seats)
	if err != nil {
		return nil, err
	}

	target, err := s.resolveShow(ctx, eventID, venueID, timingID)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxSeatsPerBooking > 0 && len(seats) > s.cfg.MaxSeatsPerBooking {
		return nil, apperrors.Invalid("at most %d seats can be booked at once", s.cfg.MaxSeatsPerBooking)
	}
	if target.capacity > 0 && len(seats) > target.capacity {
		return nil, apperrors.Invalid("requested %d seats but the show has %d", len(seats), target.capacity)
	}

	if _, err := s.users.GetByID(ctx, *holderID); err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.HoldTTL)
	unitPrice := target.venue.TicketPrice
	reservation := &Reservation{
		ID:        uuid.New(),
		EventID:   eventID,
		VenueID:   venueID,
		UserID:    *holderID,
		Status:    StatusPending,
		ExpiresAt: &expiresAt,
		Holds: []SeatHold{{
			ID:            uuid.New(),
			UserID:        *holderID,
			Seats:         seats,
			UnitPrice:     unitPrice,
			Amount:        unitPrice.Mul(decimal.NewFromInt(int64(len(seats)))),
			Currency:      s.cfg.Currency,
			PaymentStatus: PaymentPending,
			AmountPaid:    decimal.Zero,
		}},
	}
	if timingID != nil {
		reservation.TimingID = *timingID
	}

	if err := s.repo.CreateWithClaims(ctx, reservation, now); err != nil {
		if conflict := apperrors.ConflictingSeats(err); conflict != nil {
			metrics.SeatConflicts.Inc()
			s.logger.LogSeatConflict(ctx, eventID.String(), holderID.String(), conflict)
		}
		return nil, err
	}

	metrics.ReservationsCreated.Inc()
	s.logger.LogReservationCreated(ctx, reservation.ID.String(), eventID.String(), holderID.String(), seats)
	s.publish(ctx, notifications.ReservationCreated, reservation, "")

	return &BookingCreatedResponse{
		ReservationID: reservation.ID.String(),
		Status:        reservation.Status,
		Seats:         seats,
		TotalPrice:    reservation.TotalAmount(),
		Currency:      s.cfg.Currency,
		ExpiresAt:     reservation.ExpiresAt,
	}, nil
}

// ownReservation loads a reservation the caller holds, or any reservation for admins
func (s *service) ownReservation(ctx context.Context, caller middleware.Principal, id uuid.UUID) (*Reservation, error) {
	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != caller.ID && !caller.IsAdmin() {
		// Hide other users' reservations entirely
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

func (s *service) GetReservation(ctx context.Context, caller middleware.Principal, id uuid.UUID) (*ReservationResponse, error) {
	reservation, err := s.ownReservation(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return reservation.ToResponse(), nil
}

func (s *service) CancelReservation(ctx context.Context, caller middleware.Principal, id uuid.UUID) (*ReservationResponse, error) {
	reservation, err := s.ownReservation(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !reservation.Status.CanBeCancelled() {
		return nil, fmt.Errorf("%w: reservation is %s", apperrors.ErrInvalidState, strings.ToLower(reservation.Status.String()))
	}

	transition, err := s.repo.Cancel(ctx, id, ReasonUserCancelled, s.now())
	if err != nil {
		return nil, err
	}
	if !transition.Changed {
		return nil, fmt.Errorf("%w: reservation is %s", apperrors.ErrInvalidState, strings.ToLower(transition.Reservation.Status.String()))
	}

	s.recordTransition(ctx, transition, notifications.ReservationCancelled)
	return transition.Reservation.ToResponse(), nil
}

func (s *service) PrepareCheckout(ctx context.Context, caller middleware.Principal, reservationID uuid.UUID) (*CheckoutDetails, error) {
	reservation, err := s.ownReservation(ctx, caller, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != StatusPending || reservation.IsExpired(s.now()) {
		return nil, fmt.Errorf("%w: reservation is no longer awaiting payment", apperrors.ErrInvalidState)
	}

	hold := reservation.Hold(uuid.Nil)
	if hold == nil || hold.PaymentStatus != PaymentPending {
		return nil, fmt.Errorf("%w: nothing left to pay", apperrors.ErrInvalidState)
	}

	target, err := s.resolveShow(ctx, reservation.EventID, reservation.VenueID, reservation.TimingRef())
	if err != nil {
		return nil, err
	}

	return &CheckoutDetails{
		ReservationID: reservation.ID,
		HoldID:        hold.ID,
		UserID:        hold.UserID,
		EventName:     target.event.Name,
		Location:      target.venue.Location,
		Seats:         hold.Seats,
		UnitPrice:     hold.UnitPrice,
		Amount:        hold.Amount,
		Currency:      hold.Currency,
		ExpiresAt:     *reservation.ExpiresAt,

		CheckoutSessionID: hold.CheckoutSessionID,
	}, nil
}

// AttachCheckoutSession records sessionID on a pending hold, but only while the
// hold still carries previous. A concurrent checkout that got there first makes
// this fail with ErrInvalidState.
func (s *service) AttachCheckoutSession(ctx context.Context, holdID uuid.UUID, previous, sessionID string) error {
	return s.repo.AttachCheckoutSession(ctx, holdID, previous, sessionID)
}

func (s *service) ConfirmPayment(ctx context.Context, payment PaymentConfirmation) (*Transition, error) {
	if payment.PaymentReference == "" {
		return nil, apperrors.Invalid("payment reference is required")
	}

	transition, err := s.repo.Confirm(ctx, payment, s.now())
	if err != nil {
		return nil, err
	}
	if !transition.Changed {
		s.logger.InfoContext(ctx, "payment already applied",
			"reservation_id", payment.ReservationID.String(),
			"payment_reference", payment.PaymentReference,
		)
		return transition, nil
	}

	if transition.Reason == ReasonSeatsReleased {
		s.logger.WarnContext(ctx, "payment received after seats were released",
			"reservation_id", payment.ReservationID.String(),
			"payment_reference", payment.PaymentReference,
		)
		s.recordTransition(ctx, transition, notifications.ReservationPaymentFailed)
		return transition, nil
	}

	s.recordTransition(ctx, transition, notifications.ReservationConfirmed)
	return transition, nil
}

func (s *service) FailPayment(ctx context.Context, reservationID uuid.UUID, reason string) (*Transition, error) {
	if reason == "" {
		reason = ReasonPaymentFailed
	}
	transition, err := s.repo.Cancel(ctx, reservationID, reason, s.now())
	if err != nil {
		return nil, err
	}
	if transition.Changed {
		s.recordTransition(ctx, transition, notifications.ReservationPaymentFailed)
	}
	return transition, nil
}

func (s *service) ListEventBookings(ctx context.Context, eventID uuid.UUID, venueID, timingID *uuid.UUID) ([]BookingView, error) {
	if _, err := s.catalog.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if venueID != nil {
		if _, err := s.catalog.GetVenue(ctx, eventID, *venueID); err != nil {
			return nil, err
		}
		if timingID != nil {
			if _, err := s.catalog.GetTiming(ctx, *venueID, *timingID); err != nil {
				return nil, err
			}
		}
	}

	reservations, err := s.repo.ListConfirmed(ctx, LedgerFilter{EventID: &eventID, VenueID: venueID, TimingID: timingID})
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, reservations, true)
}

func (s *service) ListUserBookings(ctx context.Context, caller middleware.Principal, userID uuid.UUID) ([]BookingView, error) {
	if userID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: cannot list another user's bookings", apperrors.ErrForbidden)
	}
	reservations, err := s.repo.ListConfirmed(ctx, LedgerFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, reservations, false)
}

func (s *service) ListAllBookings(ctx context.Context) ([]BookingView, error) {
	reservations, err := s.repo.ListConfirmed(ctx, LedgerFilter{})
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, reservations, true)
}

// enrich joins reservations with catalog display data. Catalog rows deleted since
// booking are skipped rather than failing the whole listing.
func (s *service) enrich(ctx context.Context, reservations []Reservation, withHolder bool) ([]BookingView, error) {
	eventCache := make(map[uuid.UUID]*events.Event)
	venueCache := make(map[uuid.UUID]*events.Venue)
	timingCache := make(map[uuid.UUID]*events.Timing)

	var holders map[uuid.UUID]*users.User
	if withHolder && len(reservations) > 0 {
		ids := make([]uuid.UUID, 0, len(reservations))
		for _, r := range reservations {
			ids = append(ids, r.UserID)
		}
		var err error
		if holders, err = s.users.GetByIDs(ctx, ids); err != nil {
			return nil, err
		}
	}

	views := make([]BookingView, 0, len(reservations))
	for i := range reservations {
		r := &reservations[i]

		event, ok := eventCache[r.EventID]
		if !ok {
			var err error
			if event, err = s.catalog.GetEvent(ctx, r.EventID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return nil, err
			}
			eventCache[r.EventID] = event
		}
		venue, ok := venueCache[r.VenueID]
		if !ok {
			var err error
			if venue, err = s.catalog.GetVenue(ctx, r.EventID, r.VenueID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return nil, err
			}
			venueCache[r.VenueID] = venue
		}
		if event == nil || venue == nil {
			continue
		}

		view := BookingView{
			ReservationID: r.ID.String(),
			Event: EventSummary{
				ID:        event.ID.String(),
				Name:      event.Name,
				Category:  event.Category,
				PosterURL: event.PosterURL,
			},
			Venue: VenueSummary{
				ID:         venue.ID.String(),
				Location:   venue.Location,
				StartDate:  venue.StartDate,
				EndDate:    venue.EndDate,
				SeatMapURL: venue.SeatMapURL,
			},
			Seats:       r.Seats(),
			TotalPaid:   decimal.Zero,
			Currency:    s.cfg.Currency,
			ConfirmedAt: r.ConfirmedAt,
		}
		for _, hold := range r.Holds {
			view.TotalPaid = view.TotalPaid.Add(hold.AmountPaid)
			view.Currency = hold.Currency
		}

		if timingRef := r.TimingRef(); timingRef != nil {
			timing, ok := timingCache[*timingRef]
			if !ok {
				var err error
				if timing, err = s.catalog.GetTiming(ctx, r.VenueID, *timingRef); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
					return nil, err
				}
				timingCache[*timingRef] = timing
			}
			if timing != nil {
				view.Timing = &TimingSummary{ID: timing.ID.String(), StartTime: timing.StartTime, EndTime: timing.EndTime}
			}
		}

		if holder, ok := holders[r.UserID]; ok && holder != nil {
			view.Holder = &HolderSummary{ID: holder.ID.String(), FullName: holder.FullName, Email: holder.Email}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) Availability(ctx context.Context, eventID, venueID uuid.UUID, timingID *uuid.UUID) (*AvailabilityResponse, error) {
	target, err := s.resolveShow(ctx, eventID, venueID, timingID)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.TakenSeats(ctx, NewShowKey(eventID, venueID, timingID), nil, s.now())
	if err != nil {
		return nil, err
	}
	if taken == nil {
		taken = []string{}
	}

	resp := &AvailabilityResponse{
		EventID:    eventID.String(),
		VenueID:    venueID.String(),
		Capacity:   target.capacity,
		TakenSeats: taken,
		Available:  target.capacity - len(taken),
	}
	if resp.Available < 0 {
		resp.Available = 0
	}
	if timingID != nil {
		id := timingID.String()
		resp.TimingID = &id
	}
	return resp, nil
}

// ExpireDue releases one batch of overdue pending reservations
func (s *service) ExpireDue(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireDue(ctx, s.now(), s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}
	for i := range expired {
		s.recordTransition(ctx, &Transition{
			Reservation: &expired[i],
			From:        StatusPending,
			Changed:     true,
			Reason:      ReasonExpired,
		}, notifications.ReservationExpired)
	}
	return len(expired), nil
}

func (s *service) CountLiveForEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	return s.repo.CountLiveForEvent(ctx, eventID, s.now())
}

func (s *service) recordTransition(ctx context.Context, t *Transition, eventType notifications.ReservationEventType) {
	r := t.Reservation
	metrics.ReservationTransitions.WithLabelValues(r.Status.String(), t.Reason).Inc()
	s.logger.LogReservationTransition(ctx, r.ID.String(), t.From.String(), r.Status.String(), t.Reason)
	s.publish(ctx, eventType, r, t.Reason)
}

func (s *service) publish(ctx context.Context, eventType notifications.ReservationEventType, r *Reservation, reason string) {
	if s.publisher == nil {
		return
	}
	event := notifications.NewReservationEvent(eventType, r.ID)
	event.EventID = r.EventID
	event.VenueID = r.VenueID
	event.TimingID = r.TimingRef()
	event.UserID = r.UserID
	event.Seats = r.Seats()
	event.Reason = reason

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).ErrorContext(ctx, "failed to publish reservation event",
			"type", string(eventType),
			"reservation_id", r.ID.String(),
		)
	}
}
