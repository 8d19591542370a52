package middleware

import (
	"github.com/gin-gonic/gin"

	"casino-ledger-api/pkg/metrics"
)

// MetricsMiddleware records per-request success counters.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		collector.RecordRequest(c.Writer.Status() < 400)
	}
}
