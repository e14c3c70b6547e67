package snapshot_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"seatly/internal/availability"
	"seatly/internal/broadcast"
	"seatly/internal/shared/clock"
	"seatly/internal/snapshot"
	"seatly/internal/tables"
	"seatly/pkg/cache"
	"seatly/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type fakeTableDirectory struct {
	tables map[uuid.UUID][]tables.EventTable
}

func (f *fakeTableDirectory) GetEventTables(ctx context.Context, eventID uuid.UUID) ([]tables.EventTable, error) {
	return f.tables[eventID], nil
}

// memoryCache is a map-backed cache.Service. TTLs are ignored; tests drive
// invalidation explicitly.
type memoryCache struct {
	entries map[string][]byte
	gets    int
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	data, ok := m.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memoryCache) DeletePattern(ctx context.Context, pattern string) error { return nil }

func (m *memoryCache) Exists(ctx context.Context, key string) bool {
	_, ok := m.entries[key]
	return ok
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }

type fixture struct {
	service snapshot.Service
	store   *availability.MemoryStore
	clock   *clock.Mock
	cache   *memoryCache
	eventID uuid.UUID
	tableID uuid.UUID
}

func newFixture(t *testing.T, capacity int, withCache bool) *fixture {
	t.Helper()

	eventID, tableID := uuid.New(), uuid.New()
	dir := &fakeTableDirectory{tables: map[uuid.UUID][]tables.EventTable{
		eventID: {{ID: tableID, EventID: eventID, TableNumber: 1, Capacity: capacity}},
	}}

	f := &fixture{
		store:   availability.NewMemoryStore(),
		clock:   clock.NewMock(baseTime),
		eventID: eventID,
		tableID: tableID,
	}
	var cacheService cache.Service
	if withCache {
		f.cache = newMemoryCache()
		cacheService = f.cache
	}
	f.service = snapshot.NewService(f.store, dir, cacheService, 5*time.Second, f.clock, logger.New())
	return f
}

func (f *fixture) hold(t *testing.T, createdAt time.Time, seats ...int) *availability.SeatHold {
	t.Helper()
	hold := &availability.SeatHold{
		ID:        uuid.New(),
		EventID:   f.eventID,
		TableID:   f.tableID,
		SessionID: "session",
		Status:    availability.HoldActive,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(20 * time.Minute),
	}
	for _, n := range seats {
		hold.Seats = append(hold.Seats, availability.HoldSeat{ID: uuid.New(), HoldID: hold.ID, SeatNumber: n})
	}
	require.NoError(t, f.store.CreateHold(context.Background(), hold))
	return hold
}

func seatByNumber(t *testing.T, table snapshot.TableAvailability, n int) snapshot.SeatAvailability {
	t.Helper()
	for _, s := range table.Seats {
		if s.SeatNumber == n {
			return s
		}
	}
	t.Fatalf("seat %d not in snapshot", n)
	return snapshot.SeatAvailability{}
}

func TestGetSnapshot_ProjectsClaims(t *testing.T) {
	f := newFixture(t, 4, false)
	ctx := context.Background()

	hold := f.hold(t, baseTime, 1, 2)
	_, err := f.store.ConsumeHold(ctx, availability.ConsumeInput{
		HoldID:     hold.ID,
		PaymentRef: "pay_1",
		BookingRef: "BKG-20260314-AAAAAA",
		Now:        baseTime.Add(time.Minute),
	})
	require.NoError(t, err)

	held := f.hold(t, baseTime.Add(2*time.Minute), 3)

	snap, err := f.service.GetSnapshot(ctx, f.eventID)
	require.NoError(t, err)
	require.Len(t, snap.Tables, 1)

	table := snap.Tables[0]
	assert.Len(t, table.Seats, 4)
	assert.Equal(t, broadcast.SeatBooked, seatByNumber(t, table, 1).Status)
	assert.Equal(t, broadcast.SeatBooked, seatByNumber(t, table, 2).Status)

	heldSeat := seatByNumber(t, table, 3)
	assert.Equal(t, broadcast.SeatHeld, heldSeat.Status)
	require.NotNil(t, heldSeat.HeldUntil)
	assert.Equal(t, held.ExpiresAt, *heldSeat.HeldUntil)

	assert.Equal(t, broadcast.SeatAvailable, seatByNumber(t, table, 4).Status)
}

func TestGetSnapshot_ExpiredHoldShowsAvailable(t *testing.T) {
	f := newFixture(t, 2, false)
	ctx := context.Background()

	f.hold(t, baseTime, 1)

	// Past the TTL the snapshot shows the seat free even though the reaper
	// has not touched the hold yet.
	f.clock.Set(baseTime.Add(21 * time.Minute))
	snap, err := f.service.GetSnapshot(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, broadcast.SeatAvailable, seatByNumber(t, snap.Tables[0], 1).Status)
}

func TestGetSnapshot_ReadThroughCache(t *testing.T) {
	f := newFixture(t, 2, true)
	ctx := context.Background()

	f.hold(t, baseTime, 1)

	first, err := f.service.GetSnapshot(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.hits)

	second, err := f.service.GetSnapshot(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)

	// Invalidation forces a rebuild.
	f.service.Invalidate(ctx, f.eventID)
	f.clock.Advance(time.Second)
	third, err := f.service.GetSnapshot(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
	assert.True(t, third.GeneratedAt.After(first.GeneratedAt))
}

func TestGetSnapshot_EmptyEvent(t *testing.T) {
	f := newFixture(t, 2, false)

	snap, err := f.service.GetSnapshot(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, snap.Tables)
}
