package tables

import (
	"errors"
	"net/http"

	"seatly/internal/availability"
	"seatly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) CreateTable(ctx *gin.Context) {
	eventID := ctx.Param("eventId")

	var req CreateTableRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	table, err := c.service.CreateTable(ctx.Request.Context(), eventID, req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create table", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Table created successfully", table, nil)
}

func (c *Controller) GetEventTables(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	list, err := c.service.GetEventTables(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get tables", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Tables retrieved successfully", list, nil)
}

func (c *Controller) UpdateTable(ctx *gin.Context) {
	var req UpdateTableRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	table, err := c.service.UpdateTable(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, availability.ErrTableNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to update table", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Table updated successfully", table, nil)
}

func (c *Controller) DeleteTable(ctx *gin.Context) {
	err := c.service.DeleteTable(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, availability.ErrTableNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to delete table", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Table deleted successfully", nil, nil)
}
