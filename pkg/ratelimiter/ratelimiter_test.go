package ratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Another IP has its own window
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestWindowReset(t *testing.T) {
	rl := New(1, 30*time.Millisecond)

	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRemaining(t *testing.T) {
	rl := New(5, time.Minute)

	remaining, _ := rl.Remaining("10.0.0.1")
	assert.Equal(t, 5, remaining)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")

	remaining, resetTime := rl.Remaining("10.0.0.1")
	assert.Equal(t, 3, remaining)
	assert.True(t, resetTime.After(time.Now()))
}

func TestCleanupDropsExpiredWindows(t *testing.T) {
	rl := New(1, 20*time.Millisecond)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	require.Equal(t, 2, rl.Size())

	time.Sleep(30 * time.Millisecond)
	rl.Cleanup()
	assert.Equal(t, 0, rl.Size())
}

func TestMiddlewareSetsHeadersAndRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := New(2, time.Minute)
	engine := gin.New()
	engine.Use(rl.Middleware())
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	first := do()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	do()
	third := do()
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "0", third.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, third.Body.String(), "RATE_LIMIT_EXCEEDED")
}
