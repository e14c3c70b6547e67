package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityDelta_JSON(t *testing.T) {
	heldUntil := time.Date(2026, 3, 14, 18, 20, 0, 0, time.UTC)
	delta := &AvailabilityDelta{
		EventID:     uuid.New(),
		TableID:     uuid.New(),
		SeatNumbers: []int{1, 2},
		Status:      SeatHeld,
		HeldUntil:   &heldUntil,
		OccurredAt:  time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
	}

	data, err := delta.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "HELD", decoded["status"])
	assert.Contains(t, decoded, "held_until")
	assert.Contains(t, decoded, "seat_numbers")
}

func TestAvailabilityDelta_JSONOmitsHeldUntilWhenUnset(t *testing.T) {
	delta := &AvailabilityDelta{
		EventID:     uuid.New(),
		TableID:     uuid.New(),
		SeatNumbers: []int{3},
		Status:      SeatAvailable,
		OccurredAt:  time.Now().UTC(),
	}

	data, err := delta.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "held_until")
}

func TestPartitionKey_GroupsByEvent(t *testing.T) {
	eventID := uuid.New()
	a := &AvailabilityDelta{EventID: eventID, TableID: uuid.New()}
	b := &AvailabilityDelta{EventID: eventID, TableID: uuid.New()}

	assert.Equal(t, a.PartitionKey(), b.PartitionKey())
	assert.Equal(t, eventID.String(), a.PartitionKey())
}
