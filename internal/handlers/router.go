package handlers

import (
	"github.com/gin-gonic/gin"
)

// Router wires handlers onto route groups
type Router struct {
	balanceHandler *BalanceHandler
	resolveHandler *ResolveHandler
	healthHandler  *HealthHandler
}

// NewRouter creates a Router from constructed handlers
func NewRouter(balanceHandler *BalanceHandler, resolveHandler *ResolveHandler, healthHandler *HealthHandler) *Router {
	return &Router{
		balanceHandler: balanceHandler,
		resolveHandler: resolveHandler,
		healthHandler:  healthHandler,
	}
}

// SetupAPIRoutes configures the authenticated API surface on group.
func (r *Router) SetupAPIRoutes(group *gin.RouterGroup) {
	group.POST("/get-balance", r.balanceHandler.GetBalance)
	group.POST("/invalidate-balance", r.balanceHandler.InvalidateBalance)
	group.GET("/cache-stats", r.balanceHandler.GetCacheStats)
	group.POST("/resolve-game", r.resolveHandler.ResolveGame)
}

// SetupHealthRoutes configures unauthenticated health probes.
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.healthHandler.GetHealth)
		health.GET("/live", r.healthHandler.GetLiveness)
		health.GET("/ready", r.healthHandler.GetReadiness)
		health.GET("/db", r.healthHandler.GetDatabaseHealth)
	}
}
