package snapshot

import (
	"time"

	"seatly/internal/broadcast"
)

// SeatAvailability is the externally visible state of one seat.
type SeatAvailability struct {
	SeatNumber int                  `json:"seat_number"`
	Status     broadcast.SeatStatus `json:"status"`
	HeldUntil  *time.Time           `json:"held_until,omitempty"`
}

// TableAvailability is the seat map of one table.
type TableAvailability struct {
	TableID     string             `json:"table_id"`
	TableNumber int                `json:"table_number"`
	Capacity    int                `json:"capacity"`
	Label       string             `json:"label,omitempty"`
	Seats       []SeatAvailability `json:"seats"`
}

// SnapshotResponse is a point-in-time view of an event's seat availability.
// It is advisory: the claim check at hold creation is the only authority.
type SnapshotResponse struct {
	EventID     string              `json:"event_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Tables      []TableAvailability `json:"tables"`
}
