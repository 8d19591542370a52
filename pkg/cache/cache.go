package cache

import (
	"sync"
	"time"
)

// Entry represents a cached balance observation for a single account.
// Balance is a fixed-point decimal string; validity is derived from
// ObservedAt on every read, never stored as a flag.
type Entry struct {
	Balance    string
	ObservedAt time.Time
}

// EntryStat describes one cache entry for the diagnostics surface.
type EntryStat struct {
	AccountID string        `json:"accountId"`
	Age       time.Duration `json:"age"`
	Balance   string        `json:"balance"`
}

// Stats is a read-only snapshot of the cache contents.
type Stats struct {
	Size    int         `json:"size"`
	Entries []EntryStat `json:"entries"`
}

// BalanceCache is a bounded, time-limited store mapping account ID to
// the last observed balance. Entries are overwritten whole on every
// write, so readers never see a partially updated entry.
type BalanceCache struct {
	data       map[string]Entry
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
}

// New creates a BalanceCache with the given TTL and capacity.
func New(ttl time.Duration, maxEntries int) *BalanceCache {
	return &BalanceCache{
		data:       make(map[string]Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns the entry for accountID if it exists and has not expired.
// An expired entry encountered here is removed, so the store stays
// clean without a background janitor.
func (c *BalanceCache) Get(accountID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.data[accountID]
	if !exists {
		return Entry{}, false
	}

	if time.Since(entry.ObservedAt) >= c.ttl {
		delete(c.data, accountID)
		return Entry{}, false
	}

	return entry, true
}

// Put inserts or overwrites the balance for accountID, stamping the
// observation time. When the store is at capacity, expired entries are
// swept first; if every remaining entry is still valid, the
// least-recently-observed entry is evicted so the size bound holds.
func (c *BalanceCache) Put(accountID, balance string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[accountID]; !exists && len(c.data) >= c.maxEntries {
		c.sweepExpiredLocked()
		for len(c.data) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	c.data[accountID] = Entry{
		Balance:    balance,
		ObservedAt: time.Now(),
	}
}

// Invalidate removes the entry for accountID unconditionally. Called
// after any operation known to change the account's balance, so the
// next read is forced to a live source.
func (c *BalanceCache) Invalidate(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, accountID)
}

// InvalidateAll clears the store. Used on network or account-switch
// events, where every cached observation is suspect.
func (c *BalanceCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]Entry)
}

// Size returns the number of entries currently held, expired or not.
func (c *BalanceCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.data)
}

// Stats returns a snapshot of the cache for the diagnostics endpoint.
// Read-only, no eviction side effects.
func (c *BalanceCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entries := make([]EntryStat, 0, len(c.data))
	for accountID, entry := range c.data {
		entries = append(entries, EntryStat{
			AccountID: accountID,
			Age:       now.Sub(entry.ObservedAt),
			Balance:   entry.Balance,
		})
	}

	return Stats{
		Size:    len(c.data),
		Entries: entries,
	}
}

// TTL returns the configured entry lifetime.
func (c *BalanceCache) TTL() time.Duration {
	return c.ttl
}

func (c *BalanceCache) sweepExpiredLocked() {
	now := time.Now()
	for accountID, entry := range c.data {
		if now.Sub(entry.ObservedAt) >= c.ttl {
			delete(c.data, accountID)
		}
	}
}

func (c *BalanceCache) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	first := true
	for accountID, entry := range c.data {
		if first || entry.ObservedAt.Before(oldestAt) {
			oldestID = accountID
			oldestAt = entry.ObservedAt
			first = false
		}
	}
	if !first {
		delete(c.data, oldestID)
	}
}
