package ratelimiter

import (
	"sync"
	"time"
)

type counter struct {
	count     int
	resetTime time.Time
}

// RateLimiter implements fixed-window, per-IP rate limiting with
// in-memory tracking.
type RateLimiter struct {
	requests map[string]*counter
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// New creates a RateLimiter allowing limit requests per window per IP.
func New(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string]*counter),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether a request from ip fits within the current
// window, counting it if so.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	c, exists := rl.requests[ip]
	if !exists || now.After(c.resetTime) {
		rl.requests[ip] = &counter{count: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if c.count >= rl.limit {
		return false
	}

	c.count++
	return true
}

// Remaining returns how many requests ip has left in the current window
// and when the window resets.
func (rl *RateLimiter) Remaining(ip string) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.requests[ip]
	if !exists || time.Now().After(c.resetTime) {
		return rl.limit, time.Now().Add(rl.window)
	}
	remaining := rl.limit - c.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, c.resetTime
}

// Cleanup drops counters whose window has passed. Call periodically.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, c := range rl.requests {
		if now.After(c.resetTime) {
			delete(rl.requests, ip)
		}
	}
}

// Size returns the number of tracked IPs.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return len(rl.requests)
}
