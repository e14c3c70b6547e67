package reaper

import (
	"context"
	"time"

	"seatly/internal/availability"
	"seatly/internal/broadcast"
	"seatly/internal/shared/clock"
	"seatly/pkg/logger"

	"github.com/google/uuid"
)

// SnapshotInvalidator drops the cached availability snapshot for an event
// after a seat-state change.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, eventID uuid.UUID)
}

// Config contains configuration for the expiry reaper
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// DefaultConfig returns default reaper configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:  30 * time.Second,
		BatchSize: 100,
	}
}

// Reaper releases holds whose expiry has passed. It is a janitor, not a
// gatekeeper: correctness never depends on it running, because expired holds
// are already ignored by the claim check and the snapshot. It only returns
// seats to the pool promptly.
type Reaper struct {
	store       availability.Store
	publisher   broadcast.Publisher
	invalidator SnapshotInvalidator
	clock       clock.Clock
	config      *Config
	logger      *logger.Logger
	done        chan struct{}
}

// NewReaper creates a new expiry reaper
func NewReaper(store availability.Store, publisher broadcast.Publisher, invalidator SnapshotInvalidator, clk clock.Clock, config *Config, log *logger.Logger) *Reaper {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reaper{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		clock:       clk,
		config:      config,
		logger:      log,
		done:        make(chan struct{}),
	}
}

// Start starts the background expiry loop
func (r *Reaper) Start(ctx context.Context) {
	go r.run(ctx)
	r.logger.Info("Expiry reaper started", "interval", r.config.Interval.String(), "batch_size", r.config.BatchSize)
}

// Stop stops the background expiry loop
func (r *Reaper) Stop() {
	close(r.done)
	r.logger.Info("Expiry reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.ReapOnce(ctx)
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ReapOnce releases one batch of expired holds and reports how many were
// released. Exported for tests and for manual sweeps.
func (r *Reaper) ReapOnce(ctx context.Context) int {
	now := r.clock.Now()

	expired, err := r.store.ListExpiredHolds(ctx, now, r.config.BatchSize)
	if err != nil {
		r.logger.ErrorWithContext(ctx, "Failed to list expired holds", err, nil)
		return 0
	}

	released := 0
	for i := range expired {
		hold := &expired[i]

		ok, err := r.store.ReleaseHold(ctx, hold.ID, now)
		if err != nil {
			r.logger.ErrorWithContext(ctx, "Failed to release expired hold", err, map[string]interface{}{
				"hold_id": hold.ID.String(),
			})
			continue
		}
		if !ok {
			// Lost the race to a concurrent release or finalization.
			continue
		}

		released++
		r.logger.LogHoldReleased(ctx, hold.ID.String(), "expired")

		if r.invalidator != nil {
			r.invalidator.Invalidate(ctx, hold.EventID)
		}
		if r.publisher != nil {
			delta := &broadcast.AvailabilityDelta{
				EventID:     hold.EventID,
				TableID:     hold.TableID,
				SeatNumbers: hold.SeatNumbers(),
				Status:      broadcast.SeatAvailable,
				OccurredAt:  now,
			}
			if err := r.publisher.PublishDelta(ctx, delta); err != nil {
				r.logger.ErrorWithContext(ctx, "Failed to publish availability delta", err, map[string]interface{}{
					"hold_id": hold.ID.String(),
				})
			}
		}
	}

	if released > 0 {
		r.logger.Info("Released expired holds", "count", released)
	}
	return released
}
