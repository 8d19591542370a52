package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-ledger-api/internal/models"
	"casino-ledger-api/internal/services"
	"casino-ledger-api/pkg/cache"
)

// fakeBalanceService records calls and serves canned results.
type fakeBalanceService struct {
	result      models.BalanceResult
	lastAccount string
	lastWallet  services.WalletSource
	invalidated []string
	clearedAll  bool
	stats       cache.Stats
}

func (f *fakeBalanceService) Resolve(ctx context.Context, accountID string, wallet services.WalletSource) models.BalanceResult {
	f.lastAccount = accountID
	f.lastWallet = wallet
	return f.result
}

func (f *fakeBalanceService) Invalidate(accountID string) {
	f.invalidated = append(f.invalidated, accountID)
}

func (f *fakeBalanceService) InvalidateAll() {
	f.clearedAll = true
}

func (f *fakeBalanceService) CacheStats() cache.Stats {
	return f.stats
}

func balanceTestEngine(t *testing.T, svc services.BalanceServiceInterface) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	handler := NewBalanceHandler(svc)
	engine.POST("/api/get-balance", handler.GetBalance)
	engine.POST("/api/invalidate-balance", handler.InvalidateBalance)
	engine.GET("/api/cache-stats", handler.GetCacheStats)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGetBalance(t *testing.T) {
	svc := &fakeBalanceService{
		result: models.BalanceResult{Balance: "12.5000", Source: models.BalanceSourceCache, Success: true},
	}
	engine := balanceTestEngine(t, svc)

	w := postJSON(t, engine, "/api/get-balance", `{"accountId":"alice.testnet"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice.testnet", resp.AccountID)
	assert.Equal(t, "12.5000", resp.Balance)
	assert.Equal(t, models.BalanceSourceCache, resp.Source)
	assert.True(t, resp.Success)
	assert.False(t, resp.Timestamp.IsZero())

	assert.Equal(t, "alice.testnet", svc.lastAccount)
	assert.Nil(t, svc.lastWallet)
}

func TestGetBalancePassesWalletBalance(t *testing.T) {
	svc := &fakeBalanceService{
		result: models.BalanceResult{Balance: "3.0000", Source: models.BalanceSourceWallet, Success: true},
	}
	engine := balanceTestEngine(t, svc)

	w := postJSON(t, engine, "/api/get-balance", `{"accountId":"bob.testnet","walletBalance":"3000000000000000000000000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, svc.lastWallet)
	got, ok := svc.lastWallet.AccountBalance("bob.testnet")
	require.True(t, ok)
	assert.Equal(t, "3000000000000000000000000", got)

	_, ok = svc.lastWallet.AccountBalance("carol.testnet")
	assert.False(t, ok, "request wallet should only answer for its own account")
}

func TestGetBalanceFallbackStillOK(t *testing.T) {
	// An unreachable ledger degrades to the configured default, not an
	// HTTP error: the client gets a usable balance either way.
	svc := &fakeBalanceService{
		result: models.BalanceResult{Balance: "0.0000", Source: models.BalanceSourceFallback, Success: false},
	}
	engine := balanceTestEngine(t, svc)

	w := postJSON(t, engine, "/api/get-balance", `{"accountId":"alice.testnet"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.BalanceSourceFallback, resp.Source)
	assert.False(t, resp.Success)
}

func TestGetBalanceRejectsInvalidAccountID(t *testing.T) {
	cases := []string{"", "a", "Alice.testnet", ".alice", "alice.", "al..ice", "alice!", "-alice"}
	for _, accountID := range cases {
		t.Run(accountID, func(t *testing.T) {
			svc := &fakeBalanceService{}
			engine := balanceTestEngine(t, svc)

			body, err := json.Marshal(models.BalanceRequest{AccountID: accountID})
			require.NoError(t, err)

			w := postJSON(t, engine, "/api/get-balance", string(body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, svc.lastAccount)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, models.ErrorCodeInvalidAccountID, resp.Error.Code)
		})
	}
}

func TestGetBalanceMalformedJSON(t *testing.T) {
	engine := balanceTestEngine(t, &fakeBalanceService{})

	w := postJSON(t, engine, "/api/get-balance", `{"accountId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrorCodeMalformedJSON, resp.Error.Code)
}

func TestInvalidateBalance(t *testing.T) {
	t.Run("SingleAccount", func(t *testing.T) {
		svc := &fakeBalanceService{}
		engine := balanceTestEngine(t, svc)

		w := postJSON(t, engine, "/api/invalidate-balance", `{"accountId":"alice.testnet"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"alice.testnet"}, svc.invalidated)
		assert.False(t, svc.clearedAll)
	})

	t.Run("All", func(t *testing.T) {
		svc := &fakeBalanceService{}
		engine := balanceTestEngine(t, svc)

		w := postJSON(t, engine, "/api/invalidate-balance", `{"all":true}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, svc.clearedAll)
		assert.Empty(t, svc.invalidated)
	})

	t.Run("NeitherIsRejected", func(t *testing.T) {
		svc := &fakeBalanceService{}
		engine := balanceTestEngine(t, svc)

		w := postJSON(t, engine, "/api/invalidate-balance", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, svc.clearedAll)
		assert.Empty(t, svc.invalidated)
	})
}

func TestGetCacheStats(t *testing.T) {
	svc := &fakeBalanceService{
		stats: cache.Stats{
			Size:    1,
			Entries: []cache.EntryStat{{AccountID: "alice.testnet", Balance: "12.5000"}},
		},
	}
	engine := balanceTestEngine(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/cache-stats", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats cache.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Size)
	require.Len(t, stats.Entries, 1)
	assert.Equal(t, "alice.testnet", stats.Entries[0].AccountID)
}

func TestIsValidAccountID(t *testing.T) {
	valid := []string{"alice.testnet", "a1", "sub.alice.testnet", "casino-hall_7.near"}
	for _, accountID := range valid {
		assert.True(t, isValidAccountID(accountID), accountID)
	}

	invalid := []string{"", "a", "UPPER.testnet", "dot..dot", "_lead", "trail-", "space here"}
	for _, accountID := range invalid {
		assert.False(t, isValidAccountID(accountID), accountID)
	}
}
