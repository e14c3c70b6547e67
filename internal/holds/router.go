package holds

import (
	"seatly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupHoldRoutes(rg *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/holds")
	group.Use(middleware.RequireSession())
	{
		group.POST("", controller.CreateHold)        // POST /api/v1/holds
		group.GET("/:id", controller.GetHold)        // GET /api/v1/holds/:id
		group.DELETE("/:id", controller.ReleaseHold) // DELETE /api/v1/holds/:id
	}
}
