package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// HoldStatus is the lifecycle state of a SeatHold. Transitions are one-way:
// ACTIVE -> RELEASED or ACTIVE -> CONSUMED, never backward.
type HoldStatus string

const (
	HoldActive   HoldStatus = "ACTIVE"
	HoldReleased HoldStatus = "RELEASED"
	HoldConsumed HoldStatus = "CONSUMED"
)

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingReserved  BookingStatus = "RESERVED" // staff-created, unpaid
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingComp      BookingStatus = "COMP"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingRefunded  BookingStatus = "REFUNDED"
)

// SeatHold represents a temporary claim on a set of seats at one table.
// ExpiresAt is immutable after creation; renewal means a new hold record.
type SeatHold struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EventID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"event_id"`
	TableID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"table_id"`
	SessionID  string     `gorm:"type:varchar(128);index;not null" json:"session_id"`
	Status     HoldStatus `gorm:"type:varchar(20);check:status IN ('ACTIVE', 'RELEASED', 'CONSUMED');default:'ACTIVE'" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expires_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`

	Seats []HoldSeat `json:"seats,omitempty" gorm:"foreignKey:HoldID;constraint:OnDelete:CASCADE;"`
}

// HoldSeat records one seat number covered by a hold. Kept after the hold
// terminates, for auditability.
type HoldSeat struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HoldID     uuid.UUID `gorm:"type:uuid;index;not null" json:"hold_id"`
	SeatNumber int       `gorm:"not null" json:"seat_number"`
}

// Booking is a durable reservation. Once Confirmed, Comp, or Cancelled its
// seat set never changes; only status transitions (cancel/refund) remain.
type Booking struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	EventID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"event_id"`
	TableID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"table_id"`
	HoldID         *uuid.UUID    `gorm:"type:uuid;index" json:"hold_id,omitempty"`
	Status         BookingStatus `gorm:"type:varchar(20);check:status IN ('RESERVED', 'CONFIRMED', 'COMP', 'CANCELLED', 'REFUNDED');not null" json:"status"`
	PaymentRef     *string       `gorm:"type:varchar(128);index" json:"payment_ref,omitempty"`
	BookingRef     string        `gorm:"type:varchar(32);unique;not null" json:"booking_ref"`
	Payload        []byte        `gorm:"type:jsonb" json:"payload,omitempty"`
	PayloadVersion int           `gorm:"default:1" json:"payload_version"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	RefundedAt     *time.Time    `json:"refunded_at,omitempty"`

	Seats []BookingSeat `json:"seats,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingSeat records one seat number covered by a booking.
type BookingSeat struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID  uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	SeatNumber int       `gorm:"not null" json:"seat_number"`
}

// SeatClaim is the exclusivity record: a row exists exactly while a seat is
// covered by an active hold or a non-cancelled booking. The unique index on
// (event_id, table_id, seat_number) is the database-level backstop for the
// disjointness invariant.
type SeatClaim struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EventID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_claim_seat" json:"event_id"`
	TableID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_claim_seat" json:"table_id"`
	SeatNumber int        `gorm:"not null;uniqueIndex:idx_claim_seat" json:"seat_number"`
	HoldID     *uuid.UUID `gorm:"type:uuid;index" json:"hold_id,omitempty"`
	BookingID  *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	Hold    *SeatHold `json:"hold,omitempty" gorm:"foreignKey:HoldID"`
	Booking *Booking  `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName sets the table name for SeatHold
func (SeatHold) TableName() string {
	return "holds"
}

// TableName sets the table name for HoldSeat
func (HoldSeat) TableName() string {
	return "hold_seats"
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for BookingSeat
func (BookingSeat) TableName() string {
	return "booking_seats"
}

// TableName sets the table name for SeatClaim
func (SeatClaim) TableName() string {
	return "seat_claims"
}

// SeatNumbers returns the hold's seat numbers in ascending order.
func (h *SeatHold) SeatNumbers() []int {
	out := make([]int, 0, len(h.Seats))
	for _, s := range h.Seats {
		out = append(out, s.SeatNumber)
	}
	sort.Ints(out)
	return out
}

// EffectivelyActive reports whether the hold still blocks its seats at the
// given instant. An ACTIVE row past its expiry no longer counts, even if the
// reaper has not released it yet.
func (h *SeatHold) EffectivelyActive(now time.Time) bool {
	return h.Status == HoldActive && h.ExpiresAt.After(now)
}

// IsTerminal reports whether the hold reached a terminal state.
func (h *SeatHold) IsTerminal() bool {
	return h.Status == HoldReleased || h.Status == HoldConsumed
}

// SeatNumbers returns the booking's seat numbers in ascending order.
func (b *Booking) SeatNumbers() []int {
	out := make([]int, 0, len(b.Seats))
	for _, s := range b.Seats {
		out = append(out, s.SeatNumber)
	}
	sort.Ints(out)
	return out
}

// BlocksSeats reports whether the booking still excludes other claimants.
func (b *Booking) BlocksSeats() bool {
	return b.Status != BookingCancelled && b.Status != BookingRefunded
}

// IsCancelled reports whether the booking was cancelled or refunded.
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled || b.Status == BookingRefunded
}
