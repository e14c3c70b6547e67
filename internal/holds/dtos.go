package holds

import (
	"time"

	"seatly/internal/availability"
)

// CreateHoldRequest represents a purchaser's request to hold seats at a table
type CreateHoldRequest struct {
	EventID string `json:"event_id" validate:"required,uuid"`
	TableID string `json:"table_id" validate:"required,uuid"`
	Seats   []int  `json:"seats" validate:"required,min=1,dive,min=1"`
}

// HoldResponse represents a hold returned to the purchaser. The hold ID is
// the token the client presents at payment finalization.
type HoldResponse struct {
	HoldID           string                  `json:"hold_id"`
	EventID          string                  `json:"event_id"`
	TableID          string                  `json:"table_id"`
	Seats            []int                   `json:"seats"`
	Status           availability.HoldStatus `json:"status"`
	ExpiresAt        time.Time               `json:"expires_at"`
	ExpiresInSeconds int                     `json:"expires_in_seconds"`
}

func toHoldResponse(hold *availability.SeatHold, now time.Time) *HoldResponse {
	remaining := int(hold.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 || hold.Status != availability.HoldActive {
		remaining = 0
	}
	return &HoldResponse{
		HoldID:           hold.ID.String(),
		EventID:          hold.EventID.String(),
		TableID:          hold.TableID.String(),
		Seats:            hold.SeatNumbers(),
		Status:           hold.Status,
		ExpiresAt:        hold.ExpiresAt,
		ExpiresInSeconds: remaining,
	}
}
