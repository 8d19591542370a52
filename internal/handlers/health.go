package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"casino-ledger-api/internal/services"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checker *services.HealthChecker
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(checker *services.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// GetHealth handles GET /health: aggregate status of all dependencies.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ledger := h.checker.CheckLedger(c.Request.Context())
	db := h.checker.CheckDatabase(c.Request.Context())

	status := services.HealthStatusHealthy
	httpStatus := http.StatusOK
	if ledger.Status != services.HealthStatusHealthy || db.Status != services.HealthStatusHealthy {
		status = services.HealthStatusUnhealthy
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    []*services.HealthCheck{ledger, db},
	})
}

// GetLiveness handles GET /health/live: the process is up.
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// GetReadiness handles GET /health/ready: the ledger RPC is reachable.
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	ledger := h.checker.CheckLedger(c.Request.Context())
	if ledger.Status != services.HealthStatusHealthy {
		c.JSON(http.StatusServiceUnavailable, ledger)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// GetDatabaseHealth handles GET /health/db: key store reachability.
func (h *HealthHandler) GetDatabaseHealth(c *gin.Context) {
	db := h.checker.CheckDatabase(c.Request.Context())
	if db.Status != services.HealthStatusHealthy {
		c.JSON(http.StatusServiceUnavailable, db)
		return
	}
	c.JSON(http.StatusOK, db)
}
