// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine             *gin.Engine
	healthController   *controller.HealthController
	syncController     *controller.SyncController
	triggerRateLimiter *middleware.RateLimiter
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	syncController *controller.SyncController,
	triggerRateLimiter *middleware.RateLimiter,
) *Router {
	return &Router{
		healthController:   healthController,
		syncController:     syncController,
		triggerRateLimiter: triggerRateLimiter,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	// Setup routes
	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	v1 := r.engine.Group("/api/v1")
	{
		// Sync routes (only setup if the engine is available)
		if r.syncController != nil {
			owners := v1.Group("/owners/:ownerId")
			if r.triggerRateLimiter != nil {
				owners.Use(r.triggerRateLimiter.Middleware())
			}
			{
				owners.POST("/sync", r.syncController.Run)
			}
		}
	}
}
