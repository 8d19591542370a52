package mutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameMutexForSameKey(t *testing.T) {
	km := New(time.Minute)
	defer km.Stop()

	first := km.Get("alice.testnet")
	second := km.Get("alice.testnet")
	assert.Same(t, first, second)

	other := km.Get("bob.testnet")
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, km.Size())
}

func TestLockSerializesHolders(t *testing.T) {
	km := New(time.Minute)
	defer km.Stop()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu := km.Get("alice.testnet")
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestCleanupDropsIdleLocks(t *testing.T) {
	km := New(20 * time.Millisecond)
	defer km.Stop()

	km.Get("alice.testnet")
	require.Equal(t, 1, km.Size())

	assert.Eventually(t, func() bool {
		return km.Size() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestCleanupKeepsHeldLocks(t *testing.T) {
	km := New(20 * time.Millisecond)
	defer km.Stop()

	mu := km.Get("alice.testnet")
	mu.Lock()
	defer mu.Unlock()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, km.Size())
}
