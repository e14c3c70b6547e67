package snapshot

import (
	"github.com/gin-gonic/gin"
)

func SetupSnapshotRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public read path, no session required.
	rg.GET("/events/:eventId/availability", controller.GetAvailability) // GET /api/v1/events/:eventId/availability
}
