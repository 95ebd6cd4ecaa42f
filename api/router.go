package api

import (
	"marketplace/api/finance"
	"marketplace/api/health"
	"marketplace/api/middleware"
	"marketplace/api/order"
	"marketplace/config"

	"github.com/gin-gonic/gin"
)

// Router Route configuration
type Router struct {
	engine            *gin.Engine
	config            *config.Config
	healthController  *health.Controller
	orderController   *order.Controller
	financeController *finance.Controller
}

// NewRouter Create route configuration
func NewRouter(
	cfg *config.Config,
	healthController *health.Controller,
	orderController *order.Controller,
	financeController *finance.Controller,
) *Router {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Middleware order matters: the request ID must exist before
	// anything logs, and recovery must wrap everything below it.
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit))

	return &Router{
		engine:            engine,
		config:            cfg,
		healthController:  healthController,
		orderController:   orderController,
		financeController: financeController,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	{
		r.healthController.RegisterRoutes(apiGroup)

		// Seller-facing routes require an authenticated seller session.
		sellerGroup := apiGroup.Group("")
		sellerGroup.Use(middleware.SellerAuthMiddleware(&r.config.Auth))
		{
			r.orderController.RegisterRoutes(sellerGroup)
			r.financeController.RegisterRoutes(sellerGroup)
		}

		// Settlement-side routes are operated by the platform, not
		// sellers; they share the same token secret for now.
		internalGroup := apiGroup.Group("/internal")
		internalGroup.Use(middleware.SellerAuthMiddleware(&r.config.Auth))
		{
			r.financeController.RegisterInternalRoutes(internalGroup)
		}
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
