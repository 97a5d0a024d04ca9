package migrations

import (
	"testing"

	"bookd/internal/bookings"
	"bookd/internal/shared/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesSchema(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, Migrate(db))
	// a second run against an existing schema is a no-op
	require.NoError(t, Migrate(db))

	for _, model := range Models() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
	assert.True(t, db.Migrator().HasIndex(&bookings.SeatClaim{}, "idx_seat_claim_unique"))
}

func TestMigratedSchemaRejectsDuplicateSeatClaims(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, Migrate(db))

	show := bookings.ShowKey{EventID: uuid.New(), VenueID: uuid.New()}
	claim := func() *bookings.SeatClaim {
		return &bookings.SeatClaim{
			EventID:       show.EventID,
			VenueID:       show.VenueID,
			TimingID:      show.TimingID,
			SeatLabel:     "A1",
			ReservationID: uuid.New(),
			SeatHoldID:    uuid.New(),
		}
	}

	require.NoError(t, db.Create(claim()).Error)
	assert.Error(t, db.Create(claim()).Error)
}
