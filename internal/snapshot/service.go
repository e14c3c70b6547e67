package snapshot

import (
	"context"
	"fmt"
	"time"

	"seatly/internal/availability"
	"seatly/internal/broadcast"
	"seatly/internal/shared/clock"
	"seatly/internal/tables"
	"seatly/pkg/cache"
	"seatly/pkg/logger"

	"github.com/google/uuid"
)

// TableDirectory lists an event's tables (to avoid circular dependency on
// the tables feature).
type TableDirectory interface {
	GetEventTables(ctx context.Context, eventID uuid.UUID) ([]tables.EventTable, error)
}

// Service interface defines the contract for availability snapshots
type Service interface {
	// GetSnapshot returns the event's seat map as of a consistent read point.
	GetSnapshot(ctx context.Context, eventID uuid.UUID) (*SnapshotResponse, error)

	// Invalidate drops the cached snapshot after a seat-state change.
	Invalidate(ctx context.Context, eventID uuid.UUID)
}

type service struct {
	store    availability.Store
	tables   TableDirectory
	cache    cache.Service
	cacheTTL time.Duration
	clock    clock.Clock
	logger   *logger.Logger
}

func NewService(store availability.Store, tableDir TableDirectory, cacheService cache.Service, cacheTTL time.Duration, clk clock.Clock, log *logger.Logger) Service {
	return &service{
		store:    store,
		tables:   tableDir,
		cache:    cacheService,
		cacheTTL: cacheTTL,
		clock:    clk,
		logger:   log,
	}
}

func snapshotCacheKey(eventID uuid.UUID) string {
	return fmt.Sprintf("seatly:snapshot:%s", eventID)
}

func (s *service) GetSnapshot(ctx context.Context, eventID uuid.UUID) (*SnapshotResponse, error) {
	if s.cache != nil {
		var cached SnapshotResponse
		if err := s.cache.Get(ctx, snapshotCacheKey(eventID), &cached); err == nil {
			return &cached, nil
		}
	}

	snap, err := s.buildSnapshot(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshotCacheKey(eventID), snap, s.cacheTTL); err != nil {
			s.logger.ErrorWithContext(ctx, "Failed to cache availability snapshot", err, map[string]interface{}{
				"event_id": eventID.String(),
			})
		}
	}

	return snap, nil
}

func (s *service) Invalidate(ctx context.Context, eventID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, snapshotCacheKey(eventID)); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to invalidate snapshot cache", err, map[string]interface{}{
			"event_id": eventID.String(),
		})
	}
}

// buildSnapshot projects the claim rows onto the event's seat map. A claim
// whose hold lapsed but has not been reaped yet is shown as AVAILABLE; the
// snapshot never trails the reaper.
func (s *service) buildSnapshot(ctx context.Context, eventID uuid.UUID) (*SnapshotResponse, error) {
	eventTables, err := s.tables.GetEventTables(ctx, eventID)
	if err != nil {
		return nil, err
	}

	claims, err := s.store.ClaimsForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	type seatKey struct {
		tableID uuid.UUID
		number  int
	}
	claimed := make(map[seatKey]SeatAvailability, len(claims))
	for _, claim := range claims {
		key := seatKey{claim.TableID, claim.SeatNumber}
		switch {
		case claim.Booking != nil && claim.Booking.BlocksSeats():
			claimed[key] = SeatAvailability{
				SeatNumber: claim.SeatNumber,
				Status:     broadcast.SeatBooked,
			}
		case claim.Hold != nil && claim.Hold.EffectivelyActive(now):
			heldUntil := claim.Hold.ExpiresAt
			claimed[key] = SeatAvailability{
				SeatNumber: claim.SeatNumber,
				Status:     broadcast.SeatHeld,
				HeldUntil:  &heldUntil,
			}
		}
	}

	snap := &SnapshotResponse{
		EventID:     eventID.String(),
		GeneratedAt: now,
		Tables:      make([]TableAvailability, 0, len(eventTables)),
	}
	for _, table := range eventTables {
		ta := TableAvailability{
			TableID:     table.ID.String(),
			TableNumber: table.TableNumber,
			Capacity:    table.Capacity,
			Label:       table.Label,
			Seats:       make([]SeatAvailability, 0, table.Capacity),
		}
		for n := 1; n <= table.Capacity; n++ {
			if seat, ok := claimed[seatKey{table.ID, n}]; ok {
				ta.Seats = append(ta.Seats, seat)
				continue
			}
			ta.Seats = append(ta.Seats, SeatAvailability{
				SeatNumber: n,
				Status:     broadcast.SeatAvailable,
			})
		}
		snap.Tables = append(snap.Tables, ta)
	}

	return snap, nil
}
