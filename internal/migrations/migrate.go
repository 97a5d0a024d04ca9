// Package migrations owns the schema. It sits above the domain packages so that
// shared/database stays free of them.
package migrations

import (
	"bookd/internal/bookings"
	"bookd/internal/companies"
	"bookd/internal/events"
	"bookd/internal/users"
	"bookd/internal/wishlist"

	"gorm.io/gorm"
)

// Models lists every persisted type in migration order
func Models() []interface{} {
	return []interface{}{
		&users.User{},
		&companies.Company{},
		&events.Event{},
		&events.Venue{},
		&events.Timing{},
		&bookings.Reservation{},
		&bookings.SeatHold{},
		&bookings.SeatClaim{},
		&wishlist.Item{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
