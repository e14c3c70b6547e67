package bookings_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"seatly/internal/availability"
	"seatly/internal/bookings"
	"seatly/internal/broadcast"
	"seatly/internal/holds"
	"seatly/internal/shared/clock"
	"seatly/internal/shared/config"
	"seatly/internal/tables"
	"seatly/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type fakeTableDirectory struct {
	tables map[uuid.UUID]*tables.EventTable
}

func (f *fakeTableDirectory) GetTable(ctx context.Context, id uuid.UUID) (*tables.EventTable, error) {
	if t, ok := f.tables[id]; ok {
		return t, nil
	}
	return nil, availability.ErrTableNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	deltas []*broadcast.AvailabilityDelta
}

func (p *recordingPublisher) PublishDelta(ctx context.Context, delta *broadcast.AvailabilityDelta) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deltas = append(p.deltas, delta)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) last() *broadcast.AvailabilityDelta {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.deltas) == 0 {
		return nil
	}
	return p.deltas[len(p.deltas)-1]
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(ctx context.Context, eventID uuid.UUID) {}

type fixture struct {
	bookings  bookings.Service
	holds     holds.Service
	store     *availability.MemoryStore
	clock     *clock.Mock
	publisher *recordingPublisher
	eventID   uuid.UUID
	tableID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	eventID, tableID := uuid.New(), uuid.New()
	dir := &fakeTableDirectory{tables: map[uuid.UUID]*tables.EventTable{
		tableID: {ID: tableID, EventID: eventID, TableNumber: 1, Capacity: 10},
	}}

	f := &fixture{
		store:     availability.NewMemoryStore(),
		clock:     clock.NewMock(baseTime),
		publisher: &recordingPublisher{},
		eventID:   eventID,
		tableID:   tableID,
	}
	log := logger.New()
	f.bookings = bookings.NewService(f.store, dir, f.publisher, noopInvalidator{}, f.clock, log)
	f.holds = holds.NewService(f.store, dir, f.publisher, noopInvalidator{}, f.clock,
		config.HoldConfig{TTL: 20 * time.Minute, MaxSeatsPerHold: 10}, log)
	return f
}

func (f *fixture) holdSeats(t *testing.T, sessionID string, seats ...int) string {
	t.Helper()
	resp, err := f.holds.CreateHold(context.Background(), sessionID, holds.CreateHoldRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   seats,
	})
	require.NoError(t, err)
	return resp.HoldID
}

func TestFinalizeBooking_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holdID := f.holdSeats(t, "session-a", 1, 2)
	f.clock.Advance(3 * time.Minute)

	resp, err := f.bookings.FinalizeBooking(ctx, "session-a", bookings.FinalizeBookingRequest{
		HoldID:     holdID,
		PaymentRef: "pay_abc",
		Payload:    []byte(`{"diner_name":"Ada"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, availability.BookingConfirmed, resp.Status)
	assert.Equal(t, []int{1, 2}, resp.Seats)
	require.NotNil(t, resp.PaymentRef)
	assert.Equal(t, "pay_abc", *resp.PaymentRef)
	require.NotNil(t, resp.HoldID)
	assert.Equal(t, holdID, *resp.HoldID)
	assert.True(t, strings.HasPrefix(resp.BookingRef, "BKG-20260314-"), resp.BookingRef)
	assert.Len(t, resp.BookingRef, len("BKG-20260314-XXXXXX"))

	delta := f.publisher.last()
	require.NotNil(t, delta)
	assert.Equal(t, broadcast.SeatBooked, delta.Status)
}

func TestFinalizeBooking_RepeatDeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holdID := f.holdSeats(t, "session-a", 1)
	req := bookings.FinalizeBookingRequest{HoldID: holdID, PaymentRef: "pay_once"}

	first, err := f.bookings.FinalizeBooking(ctx, "session-a", req)
	require.NoError(t, err)

	second, err := f.bookings.FinalizeBooking(ctx, "session-a", req)
	require.NoError(t, err)
	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.BookingRef, second.BookingRef)

	// Same hold, different payment: refused rather than double-booked.
	_, err = f.bookings.FinalizeBooking(ctx, "session-a", bookings.FinalizeBookingRequest{
		HoldID:     holdID,
		PaymentRef: "pay_other",
	})
	assert.ErrorIs(t, err, availability.ErrAlreadyConsumed)
}

func TestFinalizeBooking_ExpiredHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holdID := f.holdSeats(t, "session-a", 1)
	f.clock.Advance(20*time.Minute + time.Second)

	_, err := f.bookings.FinalizeBooking(ctx, "session-a", bookings.FinalizeBookingRequest{
		HoldID:     holdID,
		PaymentRef: "pay_late",
	})
	assert.ErrorIs(t, err, availability.ErrHoldExpired)
}

func TestFinalizeBooking_OwnershipScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holdID := f.holdSeats(t, "session-a", 1)

	_, err := f.bookings.FinalizeBooking(ctx, "session-b", bookings.FinalizeBookingRequest{
		HoldID:     holdID,
		PaymentRef: "pay_stolen",
	})
	assert.ErrorIs(t, err, availability.ErrHoldNotFound)
}

func TestCreateStaffBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.bookings.CreateStaffBooking(ctx, bookings.StaffBookingRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{4, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, availability.BookingReserved, resp.Status)
	assert.Nil(t, resp.HoldID)

	comp, err := f.bookings.CreateStaffBooking(ctx, bookings.StaffBookingRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{6},
		Comp:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, availability.BookingComp, comp.Status)

	// Staff bookings claim seats the same way holds do.
	_, err = f.holds.CreateHold(ctx, "session-a", holds.CreateHoldRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{5},
	})
	assert.ErrorIs(t, err, availability.ErrConflict)

	_, err = f.bookings.CreateStaffBooking(ctx, bookings.StaffBookingRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{11},
	})
	assert.ErrorIs(t, err, availability.ErrInvalidSeatSet)
}

func TestCreateStaffBooking_CollidesWithActiveHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.holdSeats(t, "session-a", 1)

	// A walk-up booking never overrides a purchaser's live hold.
	_, err := f.bookings.CreateStaffBooking(ctx, bookings.StaffBookingRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{1},
	})
	require.Error(t, err)

	var conflict *availability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{1}, conflict.Seats)

	// Once the hold lapses the same request goes through.
	f.clock.Advance(21 * time.Minute)
	resp, err := f.bookings.CreateStaffBooking(ctx, bookings.StaffBookingRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{1},
	})
	require.NoError(t, err)
	assert.Equal(t, availability.BookingReserved, resp.Status)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holdID := f.holdSeats(t, "session-a", 7)
	created, err := f.bookings.FinalizeBooking(ctx, "session-a", bookings.FinalizeBookingRequest{
		HoldID:     holdID,
		PaymentRef: "pay_7",
	})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	cancelled, err := f.bookings.CancelBooking(ctx, created.BookingID, true)
	require.NoError(t, err)
	assert.Equal(t, availability.BookingRefunded, cancelled.Status)
	require.NotNil(t, cancelled.RefundedAt)

	delta := f.publisher.last()
	require.NotNil(t, delta)
	assert.Equal(t, broadcast.SeatAvailable, delta.Status)
	assert.Equal(t, []int{7}, delta.SeatNumbers)

	// Seat 7 is back in the pool.
	_, err = f.holds.CreateHold(ctx, "session-b", holds.CreateHoldRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{7},
	})
	require.NoError(t, err)

	_, err = f.bookings.CancelBooking(ctx, created.BookingID, false)
	assert.ErrorIs(t, err, availability.ErrBookingCancelled)
}

// TestHoldLifecycleTimeline walks the canonical contested-seat sequence:
// a hold blocks a rival at minute five, lapses at minute twenty, the seats
// get rehold by the rival, and the original session's late payment is
// refused.
func TestHoldLifecycleTimeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holdID := f.holdSeats(t, "session-a", 1, 2, 3)

	f.clock.Advance(5 * time.Minute)
	_, err := f.holds.CreateHold(ctx, "session-b", holds.CreateHoldRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{2},
	})
	assert.ErrorIs(t, err, availability.ErrConflict)

	f.clock.Advance(16 * time.Minute) // t = 21:00, past the 20m TTL
	rival, err := f.holds.CreateHold(ctx, "session-b", holds.CreateHoldRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   []int{1, 2, 3},
	})
	require.NoError(t, err)

	// The original session's payment confirmation lands too late.
	_, err = f.bookings.FinalizeBooking(ctx, "session-a", bookings.FinalizeBookingRequest{
		HoldID:     holdID,
		PaymentRef: "pay_too_late",
	})
	assert.ErrorIs(t, err, availability.ErrHoldExpired)

	// The rival's finalization goes through.
	resp, err := f.bookings.FinalizeBooking(ctx, "session-b", bookings.FinalizeBookingRequest{
		HoldID:     rival.HoldID,
		PaymentRef: "pay_rival",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, resp.Seats)
}
