package database

import (
	"seatly/internal/availability"
	"seatly/internal/tables"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&tables.EventTable{},
		&availability.SeatHold{},
		&availability.HoldSeat{},
		&availability.Booking{},
		&availability.BookingSeat{},
		&availability.SeatClaim{},
	)
}
