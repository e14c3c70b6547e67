package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"seatly/internal/availability"
	"seatly/internal/broadcast"
	"seatly/internal/shared/clock"
	"seatly/internal/tables"
	"seatly/pkg/logger"

	"github.com/google/uuid"
)

// TableDirectory provides table lookups for seat validation (to avoid
// circular dependency on the tables feature).
type TableDirectory interface {
	GetTable(ctx context.Context, id uuid.UUID) (*tables.EventTable, error)
}

// SnapshotInvalidator drops the cached availability snapshot for an event
// after a seat-state change.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, eventID uuid.UUID)
}

// Service interface defines the contract for booking business logic
type Service interface {
	// FinalizeBooking converts a paid, still-active hold into a CONFIRMED
	// booking. Retrying with the same hold and payment reference returns the
	// existing booking.
	FinalizeBooking(ctx context.Context, sessionID string, req FinalizeBookingRequest) (*BookingResponse, error)

	GetBooking(ctx context.Context, bookingID string) (*BookingResponse, error)

	// CreateStaffBooking claims seats directly, without a hold window.
	CreateStaffBooking(ctx context.Context, req StaffBookingRequest) (*BookingResponse, error)

	// CancelBooking frees the booking's seats. Refund cancellations are
	// recorded as REFUNDED, plain ones as CANCELLED.
	CancelBooking(ctx context.Context, bookingID string, refund bool) (*BookingResponse, error)
}

type service struct {
	store       availability.Store
	tables      TableDirectory
	publisher   broadcast.Publisher
	invalidator SnapshotInvalidator
	clock       clock.Clock
	logger      *logger.Logger
}

func NewService(store availability.Store, tableDir TableDirectory, publisher broadcast.Publisher, invalidator SnapshotInvalidator, clk clock.Clock, log *logger.Logger) Service {
	return &service{
		store:       store,
		tables:      tableDir,
		publisher:   publisher,
		invalidator: invalidator,
		clock:       clk,
		logger:      log,
	}
}

func (s *service) FinalizeBooking(ctx context.Context, sessionID string, req FinalizeBookingRequest) (*BookingResponse, error) {
	holdID, err := uuid.Parse(req.HoldID)
	if err != nil {
		return nil, availability.ErrHoldNotFound
	}

	hold, err := s.store.GetHold(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.SessionID != sessionID {
		return nil, availability.ErrHoldNotFound
	}

	bookingRef, err := generateBookingReference(s.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	now := s.clock.Now()
	booking, err := s.store.ConsumeHold(ctx, availability.ConsumeInput{
		HoldID:         holdID,
		PaymentRef:     req.PaymentRef,
		BookingRef:     bookingRef,
		Payload:        req.Payload,
		PayloadVersion: 1,
		Now:            now,
	})
	switch {
	case err == nil:
	case errors.Is(err, availability.ErrAlreadyConsumed) && booking != nil:
		// Repeated delivery of the same payment confirmation.
		if booking.PaymentRef != nil && *booking.PaymentRef == req.PaymentRef {
			return toBookingResponse(booking), nil
		}
		return nil, err
	case errors.Is(err, availability.ErrHoldExpired):
		// Payment arrived for a hold that lapsed or was released. The seats
		// may already belong to someone else; this goes to reconciliation,
		// never to silent seat reassignment.
		s.logger.LogExpiredHoldAfterPayment(ctx, holdID.String(), req.PaymentRef)
		return nil, err
	default:
		return nil, err
	}

	s.logger.LogBookingConfirmed(ctx, booking.ID.String(), holdID.String(), req.PaymentRef)
	s.announce(ctx, &broadcast.AvailabilityDelta{
		EventID:     booking.EventID,
		TableID:     booking.TableID,
		SeatNumbers: booking.SeatNumbers(),
		Status:      broadcast.SeatBooked,
		OccurredAt:  now,
	})

	return toBookingResponse(booking), nil
}

func (s *service) GetBooking(ctx context.Context, bookingID string) (*BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, availability.ErrBookingNotFound
	}
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBookingResponse(booking), nil
}

func (s *service) CreateStaffBooking(ctx context.Context, req StaffBookingRequest) (*BookingResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID: %w", err)
	}
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, fmt.Errorf("invalid table ID: %w", err)
	}

	seats := normalizeSeats(req.Seats)
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: empty seat set", availability.ErrInvalidSeatSet)
	}

	table, err := s.tables.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.EventID != eventID {
		return nil, availability.ErrTableNotFound
	}
	for _, n := range seats {
		if !table.HasSeat(n) {
			return nil, fmt.Errorf("%w: seat %d does not exist at table %d", availability.ErrInvalidSeatSet, n, table.TableNumber)
		}
	}

	bookingRef, err := generateBookingReference(s.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	status := availability.BookingReserved
	if req.Comp {
		status = availability.BookingComp
	}

	now := s.clock.Now()
	booking := &availability.Booking{
		ID:             uuid.New(),
		EventID:        eventID,
		TableID:        tableID,
		Status:         status,
		BookingRef:     bookingRef,
		Payload:        req.Payload,
		PayloadVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, n := range seats {
		booking.Seats = append(booking.Seats, availability.BookingSeat{
			ID:         uuid.New(),
			BookingID:  booking.ID,
			SeatNumber: n,
		})
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.announce(ctx, &broadcast.AvailabilityDelta{
		EventID:     eventID,
		TableID:     tableID,
		SeatNumbers: seats,
		Status:      broadcast.SeatBooked,
		OccurredAt:  now,
	})

	return toBookingResponse(booking), nil
}

func (s *service) CancelBooking(ctx context.Context, bookingID string, refund bool) (*BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, availability.ErrBookingNotFound
	}

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.store.CancelBooking(ctx, id, refund, now); err != nil {
		return nil, err
	}

	s.logger.LogBookingCancelled(ctx, id.String(), refund)
	s.announce(ctx, &broadcast.AvailabilityDelta{
		EventID:     booking.EventID,
		TableID:     booking.TableID,
		SeatNumbers: booking.SeatNumbers(),
		Status:      broadcast.SeatAvailable,
		OccurredAt:  now,
	})

	return s.GetBooking(ctx, bookingID)
}

// announce publishes a delta and invalidates the snapshot cache. Failures
// are logged and swallowed; the seat-state change already committed.
func (s *service) announce(ctx context.Context, delta *broadcast.AvailabilityDelta) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, delta.EventID)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishDelta(ctx, delta); err != nil {
			s.logger.ErrorWithContext(ctx, "Failed to publish availability delta", err, map[string]interface{}{
				"event_id": delta.EventID.String(),
				"status":   string(delta.Status),
			})
		}
	}
}

// generateBookingReference generates a unique booking reference
func generateBookingReference(clk clock.Clock) (string, error) {
	timestamp := clk.Now().Format("20060102")

	// Generate 6 random uppercase letters
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("BKG-%s-%s", timestamp, string(randomPart)), nil
}

func normalizeSeats(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, n := range in {
		if n < 1 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
