package holds

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

// CreateHold handles POST /holds
func (c *Controller) CreateHold(ctx *gin.Context) {
	var req CreateHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	sessionID := middleware.SessionID(ctx)
	hold, err := c.service.CreateHold(ctx.Request.Context(), sessionID, req)
	if err != nil {
		respondHoldError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats held successfully", hold, nil)
}

// GetHold handles GET /holds/:id
func (c *Controller) GetHold(ctx *gin.Context) {
	sessionID := middleware.SessionID(ctx)
	hold, err := c.service.GetHold(ctx.Request.Context(), sessionID, ctx.Param("id"))
	if err != nil {
		respondHoldError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold retrieved successfully", hold, nil)
}

// ReleaseHold handles DELETE /holds/:id
func (c *Controller) ReleaseHold(ctx *gin.Context) {
	sessionID := middleware.SessionID(ctx)
	if err := c.service.ReleaseHold(ctx.Request.Context(), sessionID, ctx.Param("id")); err != nil {
		respondHoldError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold released successfully", nil, nil)
}

func respondHoldError(ctx *gin.Context, err error) {
	var conflict *availability.ConflictError
	switch {
	case errors.As(err, &conflict):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Requested seats are unavailable", nil, map[string]interface{}{
			"conflicting_seats": conflict.Seats,
		})
	case errors.Is(err, availability.ErrInvalidSeatSet):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid seat selection", nil, err.Error())
	case errors.Is(err, availability.ErrTableNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Table not found", nil, err.Error())
	case errors.Is(err, availability.ErrHoldNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Hold not found", nil, err.Error())
	case errors.Is(err, availability.ErrAlreadyConsumed):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Hold already finalized into a booking", nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Hold operation failed", nil, err.Error())
	}
}
