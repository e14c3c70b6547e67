package bookings

import (
	"seatly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Purchaser path: finalization requires the holding session.
	public := rg.Group("/bookings")
	public.Use(middleware.RequireSession())
	{
		public.POST("/finalize", controller.FinalizeBooking) // POST /api/v1/bookings/finalize
	}

	// Staff path: walk-up bookings, comps, lookups, cancellations.
	staff := rg.Group("/staff/bookings")
	staff.Use(middleware.StaffAuth())
	{
		staff.POST("", controller.CreateStaffBooking)        // POST /api/v1/staff/bookings
		staff.GET("/:id", controller.GetBooking)            // GET /api/v1/staff/bookings/:id
		staff.POST("/:id/cancel", controller.CancelBooking) // POST /api/v1/staff/bookings/:id/cancel
	}
}
