package migrations

import (
	"gorm.io/gorm"
)

// constraintStatements are PostgreSQL-only guards on top of the GORM schema.
// Seat uniqueness itself lives in the seat_claims unique index so that it also
// holds on SQLite.
var constraintStatements = []string{
	`DO $$ BEGIN
		ALTER TABLE seat_holds ADD CONSTRAINT chk_seat_holds_payment_status
		CHECK (payment_status IN ('PENDING', 'PAID', 'FAILED'));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	`DO $$ BEGIN
		ALTER TABLE reservations ADD CONSTRAINT chk_reservations_status
		CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED'));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	// the expiry sweeper scans pending reservations by deadline
	`CREATE INDEX IF NOT EXISTS idx_reservations_pending_expiry
		ON reservations (expires_at) WHERE status = 'PENDING';`,
}

func MigrateConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
