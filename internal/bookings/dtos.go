package bookings

import (
	"encoding/json"
	"time"

	"seatly/internal/availability"
)

// FinalizeBookingRequest converts a paid hold into a booking. The hold ID is
// the token issued at hold creation; the payment reference comes from the
// external payment collaborator.
type FinalizeBookingRequest struct {
	HoldID     string          `json:"hold_id" validate:"required,uuid"`
	PaymentRef string          `json:"payment_ref" validate:"required,max=128"`
	Payload    json.RawMessage `json:"payload"`
}

// StaffBookingRequest creates a booking directly, without a prior hold.
// Used for phone orders and comps.
type StaffBookingRequest struct {
	EventID string          `json:"event_id" validate:"required,uuid"`
	TableID string          `json:"table_id" validate:"required,uuid"`
	Seats   []int           `json:"seats" validate:"required,min=1,dive,min=1"`
	Comp    bool            `json:"comp"`
	Payload json.RawMessage `json:"payload"`
}

// CancelBookingRequest optionally marks the cancellation as a refund.
type CancelBookingRequest struct {
	Refund bool `json:"refund"`
}

// BookingResponse represents a booking returned to clients
type BookingResponse struct {
	BookingID   string                     `json:"booking_id"`
	BookingRef  string                     `json:"booking_ref"`
	EventID     string                     `json:"event_id"`
	TableID     string                     `json:"table_id"`
	HoldID      *string                    `json:"hold_id,omitempty"`
	Seats       []int                      `json:"seats"`
	Status      availability.BookingStatus `json:"status"`
	PaymentRef  *string                    `json:"payment_ref,omitempty"`
	Payload     json.RawMessage            `json:"payload,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	CancelledAt *time.Time                 `json:"cancelled_at,omitempty"`
	RefundedAt  *time.Time                 `json:"refunded_at,omitempty"`
}

func toBookingResponse(b *availability.Booking) *BookingResponse {
	resp := &BookingResponse{
		BookingID:   b.ID.String(),
		BookingRef:  b.BookingRef,
		EventID:     b.EventID.String(),
		TableID:     b.TableID.String(),
		Seats:       b.SeatNumbers(),
		Status:      b.Status,
		PaymentRef:  b.PaymentRef,
		Payload:     b.Payload,
		CreatedAt:   b.CreatedAt,
		CancelledAt: b.CancelledAt,
		RefundedAt:  b.RefundedAt,
	}
	if b.HoldID != nil {
		holdID := b.HoldID.String()
		resp.HoldID = &holdID
	}
	return resp
}
