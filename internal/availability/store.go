package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConsumeInput carries everything needed to finalize a hold into a booking
// in one transaction.
type ConsumeInput struct {
	HoldID         uuid.UUID
	PaymentRef     string
	BookingRef     string
	Payload        []byte
	PayloadVersion int
	Now            time.Time
}

// Store is the single source of truth for seat state. All mutations of holds,
// bookings, and claims go through it; every multi-row operation is atomic.
// In-process caches of seat state are projections only.
type Store interface {
	// CreateHold atomically checks that none of the hold's seats is covered by
	// an effectively-active hold or a non-cancelled booking, then records the
	// hold and its claims. All-or-nothing across the seat set; returns a
	// *ConflictError (unwrapping to ErrConflict) when any seat is taken.
	// Staleness checks use hold.CreatedAt as "now".
	CreateHold(ctx context.Context, hold *SeatHold) error

	// GetHold returns the hold with its seats, or ErrHoldNotFound.
	GetHold(ctx context.Context, id uuid.UUID) (*SeatHold, error)

	// FindActiveHold returns this session's newest effectively-active hold for
	// the given event and table, or nil when none exists. Used for idempotent
	// hold resubmission.
	FindActiveHold(ctx context.Context, eventID, tableID uuid.UUID, sessionID string, now time.Time) (*SeatHold, error)

	// ReleaseHold marks an ACTIVE hold RELEASED and frees its claims.
	// Idempotent: returns (false, nil) when the hold is missing or already
	// terminal.
	ReleaseHold(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// ConsumeHold atomically transitions a still-active, non-expired hold to
	// CONSUMED and inserts a CONFIRMED booking covering the same seats.
	// Exactly one of ConsumeHold/ReleaseHold wins for a given hold. Returns
	// ErrHoldExpired for expired or released holds, ErrAlreadyConsumed (with
	// the existing booking) for repeated deliveries.
	ConsumeHold(ctx context.Context, in ConsumeInput) (*Booking, error)

	// CreateBooking claims seats for a booking without a prior hold (staff
	// path). Same conflict semantics as CreateHold, using booking.CreatedAt
	// as "now".
	CreateBooking(ctx context.Context, booking *Booking) error

	// GetBooking returns the booking with its seats, or ErrBookingNotFound.
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)

	// CancelBooking marks the booking CANCELLED (or REFUNDED) and frees its
	// claims. Returns ErrBookingCancelled when already terminal.
	CancelBooking(ctx context.Context, id uuid.UUID, refund bool, at time.Time) error

	// ListExpiredHolds returns up to limit ACTIVE holds whose expiry has
	// passed, oldest first. Reaper input.
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]SeatHold, error)

	// ClaimsForEvent returns all claim rows for an event with their holds and
	// bookings, as of a consistent read point. Snapshot input.
	ClaimsForEvent(ctx context.Context, eventID uuid.UUID) ([]SeatClaim, error)
}
