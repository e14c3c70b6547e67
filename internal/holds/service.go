package holds

import (
	"context"
	"fmt"
	"sort"

	"seatly/internal/availability"
	"seatly/internal/broadcast"
	"seatly/internal/shared/clock"
	"seatly/internal/shared/config"
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

// Service interface defines the contract for hold business logic
type Service interface {
	CreateHold(ctx context.Context, sessionID string, req CreateHoldRequest) (*HoldResponse, error)
	GetHold(ctx context.Context, sessionID, holdID string) (*HoldResponse, error)
	ReleaseHold(ctx context.Context, sessionID, holdID string) error
}

type service struct {
	store       availability.Store
	tables      TableDirectory
	publisher   broadcast.Publisher
	invalidator SnapshotInvalidator
	clock       clock.Clock
	config      config.HoldConfig
	logger      *logger.Logger
}

func NewService(store availability.Store, tableDir TableDirectory, publisher broadcast.Publisher, invalidator SnapshotInvalidator, clk clock.Clock, cfg config.HoldConfig, log *logger.Logger) Service {
	return &service{
		store:       store,
		tables:      tableDir,
		publisher:   publisher,
		invalidator: invalidator,
		clock:       clk,
		config:      cfg,
		logger:      log,
	}
}

// CreateHold places a fixed-TTL hold on a seat set. All-or-nothing: either
// every requested seat is claimed or none is. Resubmitting the same seat set
// from the same session returns the session's existing active hold instead of
// stacking a second one.
func (s *service) CreateHold(ctx context.Context, sessionID string, req CreateHoldRequest) (*HoldResponse, error) {
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
	if len(seats) > s.config.MaxSeatsPerHold {
		return nil, fmt.Errorf("%w: at most %d seats per hold", availability.ErrInvalidSeatSet, s.config.MaxSeatsPerHold)
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

	now := s.clock.Now()

	// Idempotent resubmission: same session, same table, same seat set.
	if existing, err := s.store.FindActiveHold(ctx, eventID, tableID, sessionID, now); err == nil && existing != nil {
		if sameSeats(existing.SeatNumbers(), seats) {
			return toHoldResponse(existing, now), nil
		}
	}

	hold := &availability.SeatHold{
		ID:        uuid.New(),
		EventID:   eventID,
		TableID:   tableID,
		SessionID: sessionID,
		Status:    availability.HoldActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.TTL),
	}
	for _, n := range seats {
		hold.Seats = append(hold.Seats, availability.HoldSeat{
			ID:         uuid.New(),
			HoldID:     hold.ID,
			SeatNumber: n,
		})
	}

	if err := s.store.CreateHold(ctx, hold); err != nil {
		return nil, err
	}

	s.logger.LogHoldCreated(ctx, hold.ID.String(), eventID.String(), sessionID, len(seats))
	s.announce(ctx, &broadcast.AvailabilityDelta{
		EventID:     eventID,
		TableID:     tableID,
		SeatNumbers: seats,
		Status:      broadcast.SeatHeld,
		HeldUntil:   &hold.ExpiresAt,
		OccurredAt:  now,
	})

	return toHoldResponse(hold, now), nil
}

func (s *service) GetHold(ctx context.Context, sessionID, holdID string) (*HoldResponse, error) {
	hold, err := s.lookupOwned(ctx, sessionID, holdID)
	if err != nil {
		return nil, err
	}
	return toHoldResponse(hold, s.clock.Now()), nil
}

// ReleaseHold frees the hold's seats early. Releasing a hold that already
// expired or was released is a no-op, not an error.
func (s *service) ReleaseHold(ctx context.Context, sessionID, holdID string) error {
	hold, err := s.lookupOwned(ctx, sessionID, holdID)
	if err != nil {
		return err
	}
	if hold.Status == availability.HoldConsumed {
		return availability.ErrAlreadyConsumed
	}

	now := s.clock.Now()
	released, err := s.store.ReleaseHold(ctx, hold.ID, now)
	if err != nil {
		return err
	}
	if !released {
		return nil
	}

	s.logger.LogHoldReleased(ctx, hold.ID.String(), "client_release")
	s.announce(ctx, &broadcast.AvailabilityDelta{
		EventID:     hold.EventID,
		TableID:     hold.TableID,
		SeatNumbers: hold.SeatNumbers(),
		Status:      broadcast.SeatAvailable,
		OccurredAt:  now,
	})
	return nil
}

// lookupOwned resolves a hold and checks session ownership. A hold owned by
// another session is reported as not found rather than forbidden, so hold IDs
// cannot be probed.
func (s *service) lookupOwned(ctx context.Context, sessionID, holdID string) (*availability.SeatHold, error) {
	id, err := uuid.Parse(holdID)
	if err != nil {
		return nil, availability.ErrHoldNotFound
	}
	hold, err := s.store.GetHold(ctx, id)
	if err != nil {
		return nil, err
	}
	if hold.SessionID != sessionID {
		return nil, availability.ErrHoldNotFound
	}
	return hold, nil
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

func sameSeats(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
