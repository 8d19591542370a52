package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds runtime counters for the balance and settlement core
type Metrics struct {
	// Request metrics
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`

	// Balance resolution metrics
	CacheHits      int64 `json:"cache_hits"`
	CacheMisses    int64 `json:"cache_misses"`
	WalletReads    int64 `json:"wallet_reads"`
	FallbackServed int64 `json:"fallback_served"`

	// RPC metrics
	RPCCalls       int64         `json:"rpc_calls"`
	RPCFailures    int64         `json:"rpc_failures"`
	AverageRPCTime time.Duration `json:"average_rpc_time"`

	// Settlement metrics
	GamesResolved      int64 `json:"games_resolved"`
	GamesAlreadyDone   int64 `json:"games_already_resolved"`
	SettlementFailures int64 `json:"settlement_failures"`

	totalRPCTime time.Duration
	mu           sync.Mutex
}

// Collector provides thread-safe metrics collection
type Collector struct {
	metrics   *Metrics
	startTime time.Time
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		metrics:   &Metrics{},
		startTime: time.Now(),
	}
}

// RecordRequest records a completed API request
func (c *Collector) RecordRequest(success bool) {
	atomic.AddInt64(&c.metrics.TotalRequests, 1)
	if success {
		atomic.AddInt64(&c.metrics.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
	}
}

// RecordCacheHit records a balance served from the cache
func (c *Collector) RecordCacheHit() {
	atomic.AddInt64(&c.metrics.CacheHits, 1)
}

// RecordCacheMiss records a balance lookup that missed the cache
func (c *Collector) RecordCacheMiss() {
	atomic.AddInt64(&c.metrics.CacheMisses, 1)
}

// RecordWalletRead records a balance served from the wallet handle
func (c *Collector) RecordWalletRead() {
	atomic.AddInt64(&c.metrics.WalletReads, 1)
}

// RecordFallback records a resolution that exhausted every live source
func (c *Collector) RecordFallback() {
	atomic.AddInt64(&c.metrics.FallbackServed, 1)
}

// RecordRPCCall records one ledger RPC round trip
func (c *Collector) RecordRPCCall(duration time.Duration, success bool) {
	atomic.AddInt64(&c.metrics.RPCCalls, 1)
	if !success {
		atomic.AddInt64(&c.metrics.RPCFailures, 1)
	}

	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()

	c.metrics.totalRPCTime += duration
	total := atomic.LoadInt64(&c.metrics.RPCCalls)
	if total > 0 {
		c.metrics.AverageRPCTime = c.metrics.totalRPCTime / time.Duration(total)
	}
}

// RecordResolution records one settlement submission outcome
func (c *Collector) RecordResolution(alreadyResolved bool) {
	atomic.AddInt64(&c.metrics.GamesResolved, 1)
	if alreadyResolved {
		atomic.AddInt64(&c.metrics.GamesAlreadyDone, 1)
	}
}

// RecordSettlementFailure records a submission that left a game pending
func (c *Collector) RecordSettlementFailure() {
	atomic.AddInt64(&c.metrics.SettlementFailures, 1)
}

// GetMetrics returns a copy of the current metrics
func (c *Collector) GetMetrics() *Metrics {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()

	return &Metrics{
		TotalRequests:      atomic.LoadInt64(&c.metrics.TotalRequests),
		SuccessfulRequests: atomic.LoadInt64(&c.metrics.SuccessfulRequests),
		FailedRequests:     atomic.LoadInt64(&c.metrics.FailedRequests),
		CacheHits:          atomic.LoadInt64(&c.metrics.CacheHits),
		CacheMisses:        atomic.LoadInt64(&c.metrics.CacheMisses),
		WalletReads:        atomic.LoadInt64(&c.metrics.WalletReads),
		FallbackServed:     atomic.LoadInt64(&c.metrics.FallbackServed),
		RPCCalls:           atomic.LoadInt64(&c.metrics.RPCCalls),
		RPCFailures:        atomic.LoadInt64(&c.metrics.RPCFailures),
		AverageRPCTime:     c.metrics.AverageRPCTime,
		GamesResolved:      atomic.LoadInt64(&c.metrics.GamesResolved),
		GamesAlreadyDone:   atomic.LoadInt64(&c.metrics.GamesAlreadyDone),
		SettlementFailures: atomic.LoadInt64(&c.metrics.SettlementFailures),
	}
}

// GetCacheHitRatio returns the cache hit percentage
func (c *Collector) GetCacheHitRatio() float64 {
	hits := atomic.LoadInt64(&c.metrics.CacheHits)
	misses := atomic.LoadInt64(&c.metrics.CacheMisses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// GetUptime returns time elapsed since the collector was created
func (c *Collector) GetUptime() time.Duration {
	return time.Since(c.startTime)
}

// Reset clears all counters. Test helper.
func (c *Collector) Reset() {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()

	c.metrics = &Metrics{}
	c.startTime = time.Now()
}
