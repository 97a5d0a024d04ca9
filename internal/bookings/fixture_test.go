package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookd/internal/events"
	"bookd/internal/notifications"
	"bookd/internal/shared/config"
	"bookd/internal/shared/database/dbtest"
	"bookd/internal/shared/middleware"
	"bookd/internal/users"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*notifications.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *notifications.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []notifications.ReservationEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.ReservationEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	repo      Repository
	svc       *service
	publisher *recordingPublisher
	clock     time.Time

	eventID  uuid.UUID
	venueID  uuid.UUID
	timingID uuid.UUID

	alice middleware.Principal
	bob   middleware.Principal
	admin middleware.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t,
		&users.User{}, &events.Event{}, &events.Venue{}, &events.Timing{},
		&Reservation{}, &SeatHold{}, &SeatClaim{},
	)

	f := &fixture{
		db:        db,
		repo:      NewRepository(db),
		publisher: &recordingPublisher{},
		clock:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	f.alice = f.createUser(t, "alice", users.RoleAudience)
	f.bob = f.createUser(t, "bob", users.RoleAudience)
	f.admin = f.createUser(t, "root", users.RoleAdmin)

	organiserID := uuid.New()
	event := &events.Event{Name: "Hamlet", Category: "theatre", OrganiserID: organiserID}
	require.NoError(t, db.Create(event).Error)
	venue := &events.Venue{
		EventID:     event.ID,
		Location:    "Globe",
		StartDate:   f.clock.Add(24 * time.Hour),
		EndDate:     f.clock.Add(72 * time.Hour),
		TicketPrice: decimal.RequireFromString("250"),
		TotalSeats:  10,
	}
	require.NoError(t, db.Create(venue).Error)
	timing := &events.Timing{VenueID: venue.ID, StartTime: "18:00", EndTime: "21:00", TotalSeats: 10}
	require.NoError(t, db.Create(timing).Error)
	f.eventID, f.venueID, f.timingID = event.ID, venue.ID, timing.ID

	catalog := events.NewService(events.NewRepository(db), nil)
	f.svc = NewService(f.repo, catalog, users.NewRepository(db), config.BookingConfig{
		HoldTTL:            15 * time.Minute,
		SweepBatchSize:     2,
		MaxSeatsPerBooking: 6,
		Currency:           "inr",
	}).(*service)
	f.svc.now = func() time.Time { return f.clock }
	f.svc.SetPublisher(f.publisher)
	return f
}

func (f *fixture) createUser(t *testing.T, name string, role users.Role) middleware.Principal {
	t.Helper()
	user := &users.User{
		Username: name,
		FullName: name,
		Email:    name + "@example.com",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, f.db.Create(user).Error)
	return middleware.Principal{ID: user.ID, Email: user.Email, Role: role}
}

func (f *fixture) request(seats ...string) CreateBookingRequest {
	timing := f.timingID.String()
	return CreateBookingRequest{
		EventID:  f.eventID.String(),
		VenueID:  f.venueID.String(),
		TimingID: &timing,
		Seats:    seats,
	}
}

func (f *fixture) show() ShowKey {
	return ShowKey{EventID: f.eventID, VenueID: f.venueID, TimingID: f.timingID}
}

func (f *fixture) book(t *testing.T, caller middleware.Principal, seats ...string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.CreateBooking(context.Background(), caller, f.request(seats...))
	require.NoError(t, err)
	return uuid.MustParse(resp.ReservationID)
}

// addVenue adds a venue without timings to the fixture event
func (f *fixture) addVenue(t *testing.T, seats int) uuid.UUID {
	t.Helper()
	venue := &events.Venue{
		EventID:     f.eventID,
		Location:    "Open Air",
		StartDate:   f.clock.Add(24 * time.Hour),
		EndDate:     f.clock.Add(48 * time.Hour),
		TicketPrice: decimal.RequireFromString("100"),
		TotalSeats:  seats,
	}
	require.NoError(t, f.db.Create(venue).Error)
	return venue.ID
}

func (f *fixture) bookAt(t *testing.T, caller middleware.Principal, venueID uuid.UUID, seats ...string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.CreateBooking(context.Background(), caller, CreateBookingRequest{
		EventID: f.eventID.String(),
		VenueID: venueID.String(),
		Seats:   seats,
	})
	require.NoError(t, err)
	return uuid.MustParse(resp.ReservationID)
}

func (f *fixture) pay(t *testing.T, reservationID uuid.UUID, reference string) *Transition {
	t.Helper()
	transition, err := f.svc.ConfirmPayment(context.Background(), PaymentConfirmation{
		ReservationID:    reservationID,
		PaymentReference: reference,
		SessionID:        "cs_test_" + reference,
		AmountPaid:       decimal.RequireFromString("500"),
	})
	require.NoError(t, err)
	return transition
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) countClaims(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&SeatClaim{}).Count(&count).Error)
	return count
}
