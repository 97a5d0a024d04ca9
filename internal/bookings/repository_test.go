package bookings

import (
	"context"
	"testing"
	"time"

	"bookd/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func pendingReservation(show ShowKey, userID uuid.UUID, expiresAt time.Time, seats ...string) *Reservation {
	return &Reservation{
		EventID:   show.EventID,
		VenueID:   show.VenueID,
		TimingID:  show.TimingID,
		UserID:    userID,
		Status:    StatusPending,
		ExpiresAt: &expiresAt,
		Holds: []SeatHold{{
			ID:            uuid.New(),
			UserID:        userID,
			Seats:         seats,
			UnitPrice:     decimal.NewFromInt(100),
			Amount:        decimal.NewFromInt(int64(100 * len(seats))),
			Currency:      "inr",
			PaymentStatus: PaymentPending,
		}},
	}
}

func TestUniqueIndexRejectsSecondClaim(t *testing.T) {
	f := newFixture(t)
	show := f.show()

	claim := func() *SeatClaim {
		return &SeatClaim{
			EventID:       show.EventID,
			VenueID:       show.VenueID,
			TimingID:      show.TimingID,
			SeatLabel:     "Z1",
			ReservationID: uuid.New(),
			SeatHoldID:    uuid.New(),
		}
	}

	require.NoError(t, f.db.Create(claim()).Error)
	err := f.db.Create(claim()).Error
	require.Error(t, err)
	assert.True(t, apperrors.IsUniqueViolation(err))

	other := claim()
	other.TimingID = uuid.Nil
	assert.NoError(t, f.db.Create(other).Error)
}

func TestCreateWithClaimsWritesOneClaimPerSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation := pendingReservation(f.show(), f.alice.ID, f.clock.Add(time.Minute), "A1", "A2", "A3")
	require.NoError(t, f.repo.CreateWithClaims(ctx, reservation, f.clock))

	var claims []SeatClaim
	require.NoError(t, f.db.Where("reservation_id = ?", reservation.ID).Find(&claims).Error)
	require.Len(t, claims, 3)
	for _, c := range claims {
		assert.Equal(t, reservation.Holds[0].ID, c.SeatHoldID)
		require.NotNil(t, c.ExpiresAt)
	}

	loaded, err := f.repo.GetByID(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3"}, loaded.Seats())
}

func TestCreateWithClaimsReportsSortedConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := pendingReservation(f.show(), f.alice.ID, f.clock.Add(time.Minute), "B3", "B1")
	require.NoError(t, f.repo.CreateWithClaims(ctx, first, f.clock))

	second := pendingReservation(f.show(), f.bob.ID, f.clock.Add(time.Minute), "B1", "B2", "B3")
	err := f.repo.CreateWithClaims(ctx, second, f.clock)
	require.ErrorIs(t, err, apperrors.ErrSeatConflict)
	assert.Equal(t, []string{"B1", "B3"}, apperrors.ConflictingSeats(err))

	_, err = f.repo.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSeatsAreScopedToTheShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	timed := pendingReservation(f.show(), f.alice.ID, f.clock.Add(time.Minute), "A1")
	require.NoError(t, f.repo.CreateWithClaims(ctx, timed, f.clock))

	untimedShow := NewShowKey(f.eventID, f.venueID, nil)
	untimed := pendingReservation(untimedShow, f.bob.ID, f.clock.Add(time.Minute), "A1")
	assert.NoError(t, f.repo.CreateWithClaims(ctx, untimed, f.clock))
}

func TestExpireDueRespectsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, seat := range []string{"R1", "R2", "R3"} {
		r := pendingReservation(f.show(), f.alice.ID, f.clock.Add(time.Minute), seat)
		require.NoError(t, f.repo.CreateWithClaims(ctx, r, f.clock))
	}
	live := pendingReservation(f.show(), f.bob.ID, f.clock.Add(time.Hour), "R4")
	require.NoError(t, f.repo.CreateWithClaims(ctx, live, f.clock))

	later := f.clock.Add(5 * time.Minute)
	expired, err := f.repo.ExpireDue(ctx, later, 2)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	for _, r := range expired {
		assert.Equal(t, StatusCancelled, r.Status)
		assert.Equal(t, ReasonExpired, r.CancelReason)
		require.Len(t, r.Holds, 1)
		assert.Equal(t, PaymentFailed, r.Holds[0].PaymentStatus)
	}

	expired, err = f.repo.ExpireDue(ctx, later, 2)
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	expired, err = f.repo.ExpireDue(ctx, later, 2)
	require.NoError(t, err)
	assert.Empty(t, expired)

	taken, err := f.repo.TakenSeats(ctx, f.show(), nil, later)
	require.NoError(t, err)
	assert.Equal(t, []string{"R4"}, taken)
}

func TestLockPendingOrdersById(t *testing.T) {
	f := newFixture(t)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	sql := f.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []uuid.UUID
		return lockPending(tx, ids).Pluck("id", &out)
	})
	assert.Contains(t, sql, "ORDER BY id ASC")
}
