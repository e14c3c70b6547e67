package availability

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrConflict means another claimant holds or owns at least one of the
	// requested seats. Expected business outcome, not a transient fault:
	// callers must not retry blindly.
	ErrConflict = errors.New("seat conflict")

	// ErrHoldNotFound means no hold exists for the given token.
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldExpired means the hold's TTL elapsed (or it was released) before
	// the operation committed. May require external refund reconciliation.
	ErrHoldExpired = errors.New("hold expired")

	// ErrAlreadyConsumed means the hold was already finalized into a booking.
	// Repeated payment-confirmation deliveries land here.
	ErrAlreadyConsumed = errors.New("hold already consumed")

	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingCancelled = errors.New("booking already cancelled")

	ErrInvalidSeatSet = errors.New("invalid seat set")
	ErrTableNotFound  = errors.New("table not found")

	// ErrStoreUnavailable wraps transactional backend failures. Retryable
	// with backoff at the caller's discretion, never assumed successful.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ConflictError carries the specific seats that could not be claimed.
// Unwraps to ErrConflict.
type ConflictError struct {
	Seats []int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seat conflict: seats %v already held or booked", e.Seats)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError returns a ConflictError with a sorted, deduplicated seat list.
func NewConflictError(seats []int) *ConflictError {
	uniq := make(map[int]struct{}, len(seats))
	for _, n := range seats {
		uniq[n] = struct{}{}
	}
	out := make([]int, 0, len(uniq))
	for n := range uniq {
		out = append(out, n)
	}
	sort.Ints(out)
	return &ConflictError{Seats: out}
}

// storeErr wraps a backend failure as ErrStoreUnavailable.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
