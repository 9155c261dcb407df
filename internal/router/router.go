package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/recipematch/backend/internal/api"
	"github.com/pageza/recipematch/backend/internal/middleware"
)

// Deps are the handlers and policies the router mounts.
type Deps struct {
	RecipeHandler *api.RecipeHandler
	HealthHandler *api.HealthHandler
	// QueryLimiter is optional; nil leaves the query route unlimited.
	QueryLimiter middleware.Limiter
	CORSOrigins  []string
}

// SetupRouter configures the application routes
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Recovery())

	// CORS middleware
	router.Use(middleware.CORS(deps.CORSOrigins))
	router.NoRoute(middleware.NotFound())

	router.GET("/health", deps.HealthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")

	var queryMiddleware []gin.HandlerFunc
	if deps.QueryLimiter != nil {
		queryMiddleware = append(queryMiddleware, middleware.RateLimit(deps.QueryLimiter))
	}
	deps.RecipeHandler.RegisterRoutes(v1, queryMiddleware...)

	return router
}
