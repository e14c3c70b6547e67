package bookings

import (
	"errors"
	"net/http"

	"seatly/internal/availability"
	"seatly/internal/shared/middleware"
	"seatly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// FinalizeBooking handles POST /bookings/finalize
func (c *Controller) FinalizeBooking(ctx *gin.Context) {
	var req FinalizeBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	sessionID := middleware.SessionID(ctx)
	booking, err := c.service.FinalizeBooking(ctx.Request.Context(), sessionID, req)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed successfully", booking, nil)
}

// GetBooking handles GET /bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	booking, err := c.service.GetBooking(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// CreateStaffBooking handles POST /staff/bookings
func (c *Controller) CreateStaffBooking(ctx *gin.Context) {
	var req StaffBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := c.service.CreateStaffBooking(ctx.Request.Context(), req)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

// CancelBooking handles POST /staff/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	// Body is optional; a bare cancel is a plain CANCELLED, not a refund.
	var req CancelBookingRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
			return
		}
	}

	booking, err := c.service.CancelBooking(ctx.Request.Context(), ctx.Param("id"), req.Refund)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", booking, nil)
}

func respondBookingError(ctx *gin.Context, err error) {
	var conflict *availability.ConflictError
	switch {
	case errors.As(err, &conflict):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Requested seats are unavailable", nil, map[string]interface{}{
			"conflicting_seats": conflict.Seats,
		})
	case errors.Is(err, availability.ErrHoldExpired):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Hold expired before payment completed", nil, err.Error())
	case errors.Is(err, availability.ErrAlreadyConsumed):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Hold already finalized into a booking", nil, err.Error())
	case errors.Is(err, availability.ErrInvalidSeatSet):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid seat selection", nil, err.Error())
	case errors.Is(err, availability.ErrHoldNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Hold not found", nil, err.Error())
	case errors.Is(err, availability.ErrBookingNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, err.Error())
	case errors.Is(err, availability.ErrBookingCancelled):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Booking is already cancelled", nil, err.Error())
	case errors.Is(err, availability.ErrTableNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Table not found", nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Booking operation failed", nil, err.Error())
	}
}
