package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SeatStatus is the externally visible state of a seat in a delta event.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HELD"
	SeatBooked    SeatStatus = "BOOKED"
)

// AvailabilityDelta describes one seat-state change for the external
// real-time notifier (WebSocket broadcaster, caches, dashboards).
type AvailabilityDelta struct {
	EventID     uuid.UUID  `json:"event_id"`
	TableID     uuid.UUID  `json:"table_id"`
	SeatNumbers []int      `json:"seat_numbers"`
	Status      SeatStatus `json:"status"`
	HeldUntil   *time.Time `json:"held_until,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// ToJSON serializes the delta for the wire.
func (d *AvailabilityDelta) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}

// PartitionKey routes all deltas for one event to the same partition so
// consumers observe per-event ordering.
func (d *AvailabilityDelta) PartitionKey() string {
	return d.EventID.String()
}

// Publisher is the availability-change event stream. Publishing failures
// must never fail the state change that triggered them; callers log and
// continue.
type Publisher interface {
	PublishDelta(ctx context.Context, delta *AvailabilityDelta) error
	Close() error
}

// NoopPublisher drops deltas. Used when Kafka is not configured and in tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishDelta(ctx context.Context, delta *AvailabilityDelta) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
