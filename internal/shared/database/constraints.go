package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the database constraints that back the concurrency
// contract. AutoMigrate creates idx_claim_seat from the model tags; these
// statements make the guarantees explicit and add supporting indexes.
func MigrateConstraints(db *gorm.DB) error {
	// The disjointness backstop: at most one claim row per physical seat.
	// Concurrent claim transactions that both pass the FOR UPDATE check race
	// to this index, and exactly one commits.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_claim_seat
		ON seat_claims (event_id, table_id, seat_number);
	`).Error
	if err != nil {
		return err
	}

	// Reaper scan: ACTIVE holds ordered by expiry.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_active_expiry
		ON holds (expires_at)
		WHERE status = 'ACTIVE';
	`).Error
	if err != nil {
		return err
	}

	// Idempotent resubmission lookup.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_session_lookup
		ON holds (event_id, table_id, session_id)
		WHERE status = 'ACTIVE';
	`).Error
	if err != nil {
		return err
	}

	// One booking per consumed hold.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_hold
		ON bookings (hold_id)
		WHERE hold_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	return nil
}
