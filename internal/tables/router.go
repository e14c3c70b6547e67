package tables

import (
	"seatly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTableRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Layout authoring is staff-only; public consumers read tables through
	// the availability snapshot.
	staff := rg.Group("/staff")
	staff.Use(middleware.StaffAuth())
	{
		staff.POST("/events/:eventId/tables", controller.CreateTable)   // POST /api/v1/staff/events/:eventId/tables
		staff.GET("/events/:eventId/tables", controller.GetEventTables) // GET /api/v1/staff/events/:eventId/tables
		staff.PUT("/tables/:id", controller.UpdateTable)                // PUT /api/v1/staff/tables/:id
		staff.DELETE("/tables/:id", controller.DeleteTable)             // DELETE /api/v1/staff/tables/:id
	}
}
