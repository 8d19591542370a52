package mutex

import (
	"sync"
	"time"
)

// KeyedMutex hands out one mutex per account ID so concurrent cache
// misses for the same account share a single live lookup instead of
// issuing duplicate RPC calls.
type KeyedMutex struct {
	mutexes    map[string]*entry
	mapMu      sync.Mutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

type entry struct {
	mu         *sync.Mutex
	lastAccess time.Time
}

// New creates a KeyedMutex whose idle per-key locks are dropped after
// cleanupTTL.
func New(cleanupTTL time.Duration) *KeyedMutex {
	km := &KeyedMutex{
		mutexes:    make(map[string]*entry),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}
	go km.cleanup()
	return km
}

// Get returns the mutex for key, creating one if needed.
func (km *KeyedMutex) Get(key string) *sync.Mutex {
	km.mapMu.Lock()
	defer km.mapMu.Unlock()

	if e, exists := km.mutexes[key]; exists {
		e.lastAccess = time.Now()
		return e.mu
	}

	e := &entry{mu: &sync.Mutex{}, lastAccess: time.Now()}
	km.mutexes[key] = e
	return e.mu
}

// Size returns the number of tracked per-key locks.
func (km *KeyedMutex) Size() int {
	km.mapMu.Lock()
	defer km.mapMu.Unlock()

	return len(km.mutexes)
}

// Stop ends the cleanup goroutine.
func (km *KeyedMutex) Stop() {
	km.stopOnce.Do(func() { close(km.stopCh) })
}

func (km *KeyedMutex) cleanup() {
	ticker := time.NewTicker(km.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			km.removeIdle()
		case <-km.stopCh:
			return
		}
	}
}

func (km *KeyedMutex) removeIdle() {
	km.mapMu.Lock()
	defer km.mapMu.Unlock()

	now := time.Now()
	for key, e := range km.mutexes {
		// A lock currently held will be recreated on the next miss;
		// TryLock keeps us from dropping one mid-flight.
		if now.Sub(e.lastAccess) > km.cleanupTTL && e.mu.TryLock() {
			e.mu.Unlock()
			delete(km.mutexes, key)
		}
	}
}
