package services

import (
	"context"
	"time"
)

// HealthStatus represents the health status of a dependency
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single dependency probe result
type HealthCheck struct {
	Service      string        `json:"service"`
	Status       HealthStatus  `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// pinger is anything reachable with a context-bound ping.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker probes the ledger RPC and the key store.
type HealthChecker struct {
	ledger LedgerClientInterface
	db     pinger
}

// NewHealthChecker creates a HealthChecker. db may be nil when the key
// store is not configured (resolver worker).
func NewHealthChecker(ledger LedgerClientInterface, db pinger) *HealthChecker {
	return &HealthChecker{ledger: ledger, db: db}
}

// CheckLedger probes the RPC endpoint.
func (hc *HealthChecker) CheckLedger(ctx context.Context) *HealthCheck {
	return runProbe(ctx, "ledger-rpc", hc.ledger.IsHealthy)
}

// CheckDatabase probes the API key store.
func (hc *HealthChecker) CheckDatabase(ctx context.Context) *HealthCheck {
	if hc.db == nil {
		return &HealthCheck{
			Service:   "mongodb",
			Status:    HealthStatusUnhealthy,
			Message:   "not configured",
			Timestamp: time.Now().UTC(),
		}
	}
	return runProbe(ctx, "mongodb", hc.db.Ping)
}

func runProbe(ctx context.Context, service string, probe func(context.Context) error) *HealthCheck {
	start := time.Now()
	check := &HealthCheck{
		Service:   service,
		Timestamp: start.UTC(),
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := probe(probeCtx); err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = err.Error()
	} else {
		check.Status = HealthStatusHealthy
	}
	check.ResponseTime = time.Since(start)
	return check
}
