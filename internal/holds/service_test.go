package holds_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"seatly/internal/availability"
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

type countingInvalidator struct {
	mu    sync.Mutex
	count int
}

func (c *countingInvalidator) Invalidate(ctx context.Context, eventID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

type fixture struct {
	service     holds.Service
	store       *availability.MemoryStore
	clock       *clock.Mock
	publisher   *recordingPublisher
	invalidator *countingInvalidator
	eventID     uuid.UUID
	tableID     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	eventID, tableID := uuid.New(), uuid.New()
	dir := &fakeTableDirectory{tables: map[uuid.UUID]*tables.EventTable{
		tableID: {ID: tableID, EventID: eventID, TableNumber: 1, Capacity: 8},
	}}

	f := &fixture{
		store:       availability.NewMemoryStore(),
		clock:       clock.NewMock(baseTime),
		publisher:   &recordingPublisher{},
		invalidator: &countingInvalidator{},
		eventID:     eventID,
		tableID:     tableID,
	}
	cfg := config.HoldConfig{TTL: 20 * time.Minute, MaxSeatsPerHold: 4}
	f.service = holds.NewService(f.store, dir, f.publisher, f.invalidator, f.clock, cfg, logger.New())
	return f
}

func (f *fixture) request(seats ...int) holds.CreateHoldRequest {
	return holds.CreateHoldRequest{
		EventID: f.eventID.String(),
		TableID: f.tableID.String(),
		Seats:   seats,
	}
}

func TestCreateHold_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.CreateHold(ctx, "session-a", f.request(2, 1, 2))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, resp.Seats)
	assert.Equal(t, availability.HoldActive, resp.Status)
	assert.Equal(t, baseTime.Add(20*time.Minute), resp.ExpiresAt)
	assert.Equal(t, 20*60, resp.ExpiresInSeconds)

	delta := f.publisher.last()
	require.NotNil(t, delta)
	assert.Equal(t, broadcast.SeatHeld, delta.Status)
	assert.Equal(t, []int{1, 2}, delta.SeatNumbers)
	require.NotNil(t, delta.HeldUntil)
	assert.Equal(t, resp.ExpiresAt, *delta.HeldUntil)
	assert.Equal(t, 1, f.invalidator.count)
}

func TestCreateHold_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateHold(ctx, "session-a", f.request())
	assert.ErrorIs(t, err, availability.ErrInvalidSeatSet)

	_, err = f.service.CreateHold(ctx, "session-a", f.request(1, 2, 3, 4, 5))
	assert.ErrorIs(t, err, availability.ErrInvalidSeatSet)

	// Seat 9 does not exist at a capacity-8 table.
	_, err = f.service.CreateHold(ctx, "session-a", f.request(9))
	assert.ErrorIs(t, err, availability.ErrInvalidSeatSet)

	unknownTable := f.request(1)
	unknownTable.TableID = uuid.New().String()
	_, err = f.service.CreateHold(ctx, "session-a", unknownTable)
	assert.ErrorIs(t, err, availability.ErrTableNotFound)
}

func TestCreateHold_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateHold(ctx, "session-a", f.request(1, 2, 3))
	require.NoError(t, err)

	_, err = f.service.CreateHold(ctx, "session-b", f.request(3, 4))
	require.Error(t, err)

	var conflict *availability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{3}, conflict.Seats)
}

func TestCreateHold_IdempotentResubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateHold(ctx, "session-a", f.request(1, 2))
	require.NoError(t, err)

	// Same session, same seat set: the existing hold comes back, not a
	// conflict and not a second hold.
	f.clock.Advance(5 * time.Minute)
	second, err := f.service.CreateHold(ctx, "session-a", f.request(1, 2))
	require.NoError(t, err)
	assert.Equal(t, first.HoldID, second.HoldID)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	assert.Equal(t, 15*60, second.ExpiresInSeconds)

	// A different seat set from the same session conflicts on overlap.
	_, err = f.service.CreateHold(ctx, "session-a", f.request(2, 3))
	assert.ErrorIs(t, err, availability.ErrConflict)
}

func TestCreateHold_AfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateHold(ctx, "session-a", f.request(1, 2))
	require.NoError(t, err)

	f.clock.Advance(21 * time.Minute)
	resp, err := f.service.CreateHold(ctx, "session-b", f.request(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, resp.Seats)
}

func TestGetHold_OwnershipScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateHold(ctx, "session-a", f.request(1))
	require.NoError(t, err)

	got, err := f.service.GetHold(ctx, "session-a", created.HoldID)
	require.NoError(t, err)
	assert.Equal(t, created.HoldID, got.HoldID)

	// Another session cannot see or probe the hold.
	_, err = f.service.GetHold(ctx, "session-b", created.HoldID)
	assert.ErrorIs(t, err, availability.ErrHoldNotFound)

	_, err = f.service.GetHold(ctx, "session-a", "not-a-uuid")
	assert.ErrorIs(t, err, availability.ErrHoldNotFound)
}

func TestReleaseHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateHold(ctx, "session-a", f.request(1, 2))
	require.NoError(t, err)

	require.NoError(t, f.service.ReleaseHold(ctx, "session-a", created.HoldID))

	delta := f.publisher.last()
	require.NotNil(t, delta)
	assert.Equal(t, broadcast.SeatAvailable, delta.Status)
	assert.Equal(t, []int{1, 2}, delta.SeatNumbers)

	// Releasing again is a quiet no-op.
	publishedBefore := len(f.publisher.deltas)
	require.NoError(t, f.service.ReleaseHold(ctx, "session-a", created.HoldID))
	assert.Equal(t, publishedBefore, len(f.publisher.deltas))

	// The seats are immediately reclaimable.
	_, err = f.service.CreateHold(ctx, "session-b", f.request(1, 2))
	require.NoError(t, err)
}

func TestReleaseHold_OtherSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateHold(ctx, "session-a", f.request(1))
	require.NoError(t, err)

	err = f.service.ReleaseHold(ctx, "session-b", created.HoldID)
	assert.ErrorIs(t, err, availability.ErrHoldNotFound)
}
