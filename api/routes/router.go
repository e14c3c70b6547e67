// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"seatly/internal/availability"
	"seatly/internal/bookings"
	"seatly/internal/broadcast"
	"seatly/internal/holds"
	"seatly/internal/shared/clock"
	"seatly/internal/shared/config"
	"seatly/internal/shared/database"
	"seatly/internal/snapshot"
	"seatly/internal/tables"
	"seatly/pkg/cache"
	"seatly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher broadcast.Publisher
	clock     clock.Clock
	logger    *logger.Logger

	// Shared between features and exposed to the reaper (dependency injection)
	store           availability.Store
	tableService    tables.Service
	snapshotService snapshot.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, publisher broadcast.Publisher, clk clock.Clock, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
		clock:     clk,
		logger:    log,
	}
}

// Store returns the seat-state store. Valid after SetupRoutes.
func (r *Router) Store() availability.Store {
	return r.store
}

// SnapshotService returns the snapshot service. Valid after SetupRoutes.
func (r *Router) SnapshotService() snapshot.Service {
	return r.snapshotService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.store = availability.NewStore(r.db.PostgreSQL)

	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Tables first: holds, bookings, and snapshots validate against them
		r.setupTableRoutes(api)
		r.setupSnapshotRoutes(api)
		r.setupHoldRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatly-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seatly-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupTableRoutes configures table layout management routes
func (r *Router) setupTableRoutes(rg *gin.RouterGroup) {
	tableRepo := tables.NewRepository(r.db.PostgreSQL)
	r.tableService = tables.NewService(tableRepo, r.clock)
	tableController := tables.NewController(r.tableService)

	tables.SetupTableRoutes(rg, tableController)
}

// setupSnapshotRoutes configures the public availability read path
func (r *Router) setupSnapshotRoutes(rg *gin.RouterGroup) {
	cacheService := cache.NewService(r.db.GetRedis())
	r.snapshotService = snapshot.NewService(r.store, r.tableService, cacheService, r.config.Redis.SnapshotCacheTTL, r.clock, r.logger)
	snapshotController := snapshot.NewController(r.snapshotService)

	snapshot.SetupSnapshotRoutes(rg, snapshotController)
}

// setupHoldRoutes configures the purchaser hold routes
func (r *Router) setupHoldRoutes(rg *gin.RouterGroup) {
	holdService := holds.NewService(r.store, r.tableService, r.publisher, r.snapshotService, r.clock, r.config.Hold, r.logger)
	holdController := holds.NewController(holdService)

	holds.SetupHoldRoutes(rg, holdController)
}

// setupBookingRoutes configures finalization and staff booking routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingService := bookings.NewService(r.store, r.tableService, r.publisher, r.snapshotService, r.clock, r.logger)
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)
}
