package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookd/internal/notifications"
	"bookd/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseSeats(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []string
		invalid bool
	}{
		{name: "trims and upper-cases", input: []string{" a1", "b12 "}, want: []string{"A1", "B12"}},
		{name: "drops duplicates keeping order", input: []string{"A2", "a1", "A2"}, want: []string{"A2", "A1"}},
		{name: "accepts dashed labels", input: []string{"AA-101"}, want: []string{"AA-101"}},
		{name: "empty list", input: []string{}, invalid: true},
		{name: "nil list", input: nil, invalid: true},
		{name: "blank label", input: []string{"A1", "  "}, invalid: true},
		{name: "malformed label", input: []string{"1A"}, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormaliseSeats(tt.input)
			if tt.invalid {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookingConflictsWithPaidSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.book(t, f.alice, "A1", "A2")
	transition := f.pay(t, first, "pi_first")
	assert.True(t, transition.Changed)
	assert.Equal(t, StatusConfirmed, transition.Reservation.Status)

	_, err := f.svc.CreateBooking(ctx, f.bob, f.request("A2", "A3"))
	require.ErrorIs(t, err, apperrors.ErrSeatConflict)
	assert.Equal(t, []string{"A2"}, apperrors.ConflictingSeats(err))

	resp, err := f.svc.CreateBooking(ctx, f.bob, f.request("A3", "A4"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, resp.Status)
	assert.True(t, decimal.RequireFromString("500").Equal(resp.TotalPrice))
	assert.Equal(t, "inr", resp.Currency)
	require.NotNil(t, resp.ExpiresAt)
	assert.True(t, resp.ExpiresAt.Equal(f.clock.Add(15*time.Minute)))
}

func TestPendingHoldBlocksUntilExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, f.alice, "C1")

	_, err := f.svc.CreateBooking(ctx, f.bob, f.request("C1"))
	require.ErrorIs(t, err, apperrors.ErrSeatConflict)

	f.advance(16 * time.Minute)
	f.book(t, f.bob, "C1")

	var cancelled Reservation
	require.NoError(t, f.db.Where("user_id = ?", f.alice.ID).First(&cancelled).Error)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, ReasonExpired, cancelled.CancelReason)
}

func TestConcurrentOverlappingBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	callers := []struct {
		seats []string
	}{
		{seats: []string{"D1", "D2"}},
		{seats: []string{"D2", "D3"}},
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i, c := range callers {
		wg.Add(1)
		caller := f.alice
		if i == 1 {
			caller = f.bob
		}
		go func(seats []string) {
			defer wg.Done()
			_, err := f.svc.CreateBooking(ctx, caller, f.request(seats...))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.ConflictingSeats(err) != nil:
				assert.Equal(t, []string{"D2"}, apperrors.ConflictingSeats(err))
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(c.seats)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	var reservations int64
	require.NoError(t, f.db.Model(&Reservation{}).Count(&reservations).Error)
	assert.EqualValues(t, 1, reservations)
	assert.EqualValues(t, 2, f.countClaims(t))
}

func TestEmptySeatsCreateNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.alice, f.request())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	var reservations int64
	require.NoError(t, f.db.Model(&Reservation{}).Count(&reservations).Error)
	assert.Zero(t, reservations)
}

func TestUnknownCatalogReferencesAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request("A1")
	req.VenueID = uuid.NewString()
	_, err := f.svc.CreateBooking(ctx, f.alice, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	req = f.request("A1")
	req.EventID = uuid.NewString()
	_, err = f.svc.CreateBooking(ctx, f.alice, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	req = f.request("A1")
	missing := uuid.NewString()
	req.TimingID = &missing
	_, err = f.svc.CreateBooking(ctx, f.alice, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	req = f.request("A1")
	stranger := uuid.NewString()
	req.UserID = &stranger
	_, err = f.svc.CreateBooking(ctx, f.admin, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSeatLimits(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.alice, f.request("A1", "A2", "A3", "A4", "A5", "A6", "A7"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	f.svc.cfg.MaxSeatsPerBooking = 0
	seats := []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "A11"}
	_, err = f.svc.CreateBooking(context.Background(), f.alice, f.request(seats...))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBookingOnBehalfOfAnotherUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request("E1")
	target := f.bob.ID.String()
	req.UserID = &target

	_, err := f.svc.CreateBooking(ctx, f.alice, req)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	resp, err := f.svc.CreateBooking(ctx, f.admin, req)
	require.NoError(t, err)

	reservation, err := f.repo.GetByID(ctx, uuid.MustParse(resp.ReservationID))
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, reservation.UserID)
	assert.Equal(t, f.bob.ID, reservation.Holds[0].UserID)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.book(t, f.alice, "F1", "F2")
	first := f.pay(t, id, "pi_repeat")
	require.True(t, first.Changed)

	second, err := f.svc.ConfirmPayment(ctx, PaymentConfirmation{
		ReservationID:    id,
		PaymentReference: "pi_repeat",
		AmountPaid:       decimal.RequireFromString("999"),
	})
	require.NoError(t, err)
	assert.False(t, second.Changed)

	reservation, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, reservation.Holds, 1)
	hold := reservation.Holds[0]
	assert.Equal(t, PaymentPaid, hold.PaymentStatus)
	assert.True(t, decimal.RequireFromString("500").Equal(hold.AmountPaid))
	assert.Equal(t, []string{"F1", "F2"}, hold.Seats)
	assert.EqualValues(t, 2, f.countClaims(t))

	var permanent int64
	require.NoError(t, f.db.Model(&SeatClaim{}).Where("expires_at IS NULL").Count(&permanent).Error)
	assert.EqualValues(t, 2, permanent)

	assert.Equal(t, []notifications.ReservationEventType{
		notifications.ReservationCreated,
		notifications.ReservationConfirmed,
	}, f.publisher.types())
}

func TestConfirmPaymentRequiresReference(t *testing.T) {
	f := newFixture(t)
	id := f.book(t, f.alice, "F3")

	_, err := f.svc.ConfirmPayment(context.Background(), PaymentConfirmation{ReservationID: id})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.ConfirmPayment(context.Background(), PaymentConfirmation{ReservationID: uuid.New(), PaymentReference: "pi_x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFailedPaymentReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.book(t, f.alice, "G1", "G2")

	transition, err := f.svc.FailPayment(ctx, id, "")
	require.NoError(t, err)
	assert.True(t, transition.Changed)
	assert.Equal(t, StatusCancelled, transition.Reservation.Status)
	assert.Equal(t, ReasonPaymentFailed, transition.Reservation.CancelReason)
	assert.Equal(t, PaymentFailed, transition.Reservation.Holds[0].PaymentStatus)
	assert.Zero(t, f.countClaims(t))

	again, err := f.svc.FailPayment(ctx, id, "")
	require.NoError(t, err)
	assert.False(t, again.Changed)

	f.book(t, f.bob, "G2")
}

func TestFailPaymentLeavesConfirmedReservation(t *testing.T) {
	f := newFixture(t)
	id := f.book(t, f.alice, "G5")
	f.pay(t, id, "pi_g5")

	transition, err := f.svc.FailPayment(context.Background(), id, "")
	require.NoError(t, err)
	assert.False(t, transition.Changed)
	assert.Equal(t, StatusConfirmed, transition.Reservation.Status)
}

func TestLatePaymentReacquiresFreeSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.book(t, f.alice, "H1")
	f.advance(20 * time.Minute)

	released, err := f.svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.Zero(t, f.countClaims(t))

	transition := f.pay(t, id, "pi_late")
	assert.True(t, transition.Changed)
	assert.Equal(t, ReasonPaid, transition.Reason)
	assert.Equal(t, StatusConfirmed, transition.Reservation.Status)
	assert.Empty(t, transition.Reservation.CancelReason)

	taken, err := f.repo.TakenSeats(ctx, f.show(), nil, f.clock)
	require.NoError(t, err)
	assert.Equal(t, []string{"H1"}, taken)
}

func TestLatePaymentAfterSeatsWereRetaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.book(t, f.alice, "J1", "J2")
	f.advance(20 * time.Minute)
	f.book(t, f.bob, "J2")

	transition := f.pay(t, id, "pi_too_late")
	assert.True(t, transition.Changed)
	assert.Equal(t, ReasonSeatsReleased, transition.Reason)
	assert.Equal(t, StatusCancelled, transition.Reservation.Status)
	hold := transition.Reservation.Holds[0]
	assert.Equal(t, PaymentFailed, hold.PaymentStatus)
	assert.Equal(t, ReasonSeatsReleased, hold.FailureReason)
	require.NotNil(t, hold.PaymentReference)
	assert.Equal(t, "pi_too_late", *hold.PaymentReference)

	// Redelivery is recognised by its payment reference
	again := f.pay(t, id, "pi_too_late")
	assert.False(t, again.Changed)

	taken, err := f.repo.TakenSeats(ctx, f.show(), nil, f.clock)
	require.NoError(t, err)
	assert.Equal(t, []string{"J2"}, taken)
}

func TestCancelReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.book(t, f.alice, "K1")

	_, err := f.svc.CancelReservation(ctx, f.bob, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	resp, err := f.svc.CancelReservation(ctx, f.alice, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, resp.Status)
	assert.Equal(t, ReasonUserCancelled, resp.CancelReason)
	assert.Zero(t, f.countClaims(t))

	_, err = f.svc.CancelReservation(ctx, f.alice, id)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	paid := f.book(t, f.alice, "K2")
	f.pay(t, paid, "pi_k2")
	_, err = f.svc.CancelReservation(ctx, f.admin, paid)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestGetReservationIsScopedToHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.book(t, f.alice, "L1")

	resp, err := f.svc.GetReservation(ctx, f.alice, id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), resp.ID)
	require.NotNil(t, resp.TimingID)
	assert.Equal(t, f.timingID.String(), *resp.TimingID)

	_, err = f.svc.GetReservation(ctx, f.bob, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.GetReservation(ctx, f.admin, id)
	assert.NoError(t, err)
}

func TestPrepareCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.book(t, f.alice, "M1", "M2", "M3")

	details, err := f.svc.PrepareCheckout(ctx, f.alice, id)
	require.NoError(t, err)
	assert.Equal(t, "Hamlet", details.EventName)
	assert.Equal(t, "Globe", details.Location)
	assert.True(t, decimal.RequireFromString("750").Equal(details.Amount))
	assert.Len(t, details.Seats, 3)

	assert.Empty(t, details.CheckoutSessionID)

	require.NoError(t, f.svc.AttachCheckoutSession(ctx, details.HoldID, "", "cs_test_123"))
	reservation, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", reservation.Holds[0].CheckoutSessionID)

	// a second checkout that read the hold before the first attach loses
	err = f.svc.AttachCheckoutSession(ctx, details.HoldID, "", "cs_test_456")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	details, err = f.svc.PrepareCheckout(ctx, f.alice, id)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", details.CheckoutSessionID)
	require.NoError(t, f.svc.AttachCheckoutSession(ctx, details.HoldID, "cs_test_123", "cs_test_789"))

	err = f.svc.AttachCheckoutSession(ctx, uuid.New(), "", "cs_test_000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.advance(time.Hour)
	_, err = f.svc.PrepareCheckout(ctx, f.alice, id)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestListingsShowOnlyPaidBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.book(t, f.alice, "N1", "N2")
	f.pay(t, paid, "pi_n")
	f.book(t, f.alice, "N3")
	f.book(t, f.bob, "N4")

	mine, err := f.svc.ListUserBookings(ctx, f.alice, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, paid.String(), mine[0].ReservationID)
	assert.Equal(t, "Hamlet", mine[0].Event.Name)
	assert.Equal(t, "Globe", mine[0].Venue.Location)
	require.NotNil(t, mine[0].Timing)
	assert.Equal(t, "18:00", mine[0].Timing.StartTime)
	assert.Equal(t, []string{"N1", "N2"}, mine[0].Seats)

	_, err = f.svc.ListUserBookings(ctx, f.bob, f.alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	byShow, err := f.svc.ListEventBookings(ctx, f.eventID, &f.venueID, &f.timingID)
	require.NoError(t, err)
	require.Len(t, byShow, 1)
	require.NotNil(t, byShow[0].Holder)
	assert.Equal(t, f.alice.Email, byShow[0].Holder.Email)

	otherVenue := uuid.New()
	_, err = f.svc.ListEventBookings(ctx, f.eventID, &otherVenue, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := f.svc.ListAllBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.book(t, f.alice, "P1")
	f.pay(t, paid, "pi_p1")
	f.book(t, f.bob, "P2", "P3")

	availability, err := f.svc.Availability(ctx, f.eventID, f.venueID, &f.timingID)
	require.NoError(t, err)
	assert.Equal(t, 10, availability.Capacity)
	assert.Equal(t, []string{"P1", "P2", "P3"}, availability.TakenSeats)
	assert.Equal(t, 7, availability.Available)

	f.advance(time.Hour)
	availability, err = f.svc.Availability(ctx, f.eventID, f.venueID, &f.timingID)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, availability.TakenSeats)

	_, err = f.svc.Availability(ctx, f.eventID, f.venueID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	openAir := f.addVenue(t, 4)
	f.bookAt(t, f.bob, openAir, "Q1")
	untimed, err := f.svc.Availability(ctx, f.eventID, openAir, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, untimed.Capacity)
	assert.Equal(t, []string{"Q1"}, untimed.TakenSeats)
	assert.Nil(t, untimed.TimingID)
}

func TestTimingRequiredWhenVenueHasShowtimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.book(t, f.alice, "A1")
	f.pay(t, paid, "pi_a1")

	req := f.request("A1")
	req.TimingID = nil
	_, err := f.svc.CreateBooking(ctx, f.bob, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	empty := ""
	req.TimingID = &empty
	_, err = f.svc.CreateBooking(ctx, f.bob, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.EqualValues(t, 1, f.countClaims(t))

	// venues without showtimes book against the venue itself
	openAir := f.addVenue(t, 4)
	id := f.bookAt(t, f.bob, openAir, "A1")
	reservation, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, reservation.TimingID)
}

func TestCountLiveForEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.book(t, f.alice, "Q1")
	f.pay(t, paid, "pi_q1")
	f.book(t, f.bob, "Q2")

	count, err := f.svc.CountLiveForEvent(ctx, f.eventID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	f.advance(time.Hour)
	count, err = f.svc.CountLiveForEvent(ctx, f.eventID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
