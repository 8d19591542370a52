package services

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-ledger-api/internal/config"
)

func testRPCConfig(endpoint string) *config.RPCConfig {
	return &config.RPCConfig{
		Endpoint:   endpoint,
		NetworkID:  "testnet",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}
}

func testSigningKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return "ed25519:" + base58.Encode(priv)
}

func rpcResult(t *testing.T, w http.ResponseWriter, result interface{}) {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "1",
		"result":  json.RawMessage(raw),
	})
}

func TestLedgerGetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "query", req.Method)

		rpcResult(t, w, map[string]string{"amount": "12500000000000000000000000"})
	}))
	defer server.Close()

	client, err := NewLedgerClient(testRPCConfig(server.URL), "")
	require.NoError(t, err)

	balance, err := client.GetBalance(context.Background(), "alice.testnet")
	require.NoError(t, err)
	assert.Equal(t, "12500000000000000000000000", balance)
}

func TestLedgerGetBalanceUnknownAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      "1",
			"error": map[string]interface{}{
				"name":    "HANDLER_ERROR",
				"cause":   map[string]string{"name": "UNKNOWN_ACCOUNT"},
				"message": "account ghost.testnet does not exist while viewing",
			},
		})
	}))
	defer server.Close()

	client, err := NewLedgerClient(testRPCConfig(server.URL), "")
	require.NoError(t, err)

	_, err = client.GetBalance(context.Background(), "ghost.testnet")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestLedgerRetriesTransportFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		rpcResult(t, w, map[string]string{"amount": "1"})
	}))
	defer server.Close()

	client, err := NewLedgerClient(testRPCConfig(server.URL), "")
	require.NoError(t, err)

	balance, err := client.GetBalance(context.Background(), "alice.testnet")
	require.NoError(t, err)
	assert.Equal(t, "1", balance)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestLedgerExhaustedRetriesIsRPCUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewLedgerClient(testRPCConfig(server.URL), "")
	require.NoError(t, err)

	_, err = client.GetBalance(context.Background(), "alice.testnet")
	assert.ErrorIs(t, err, ErrRPCUnavailable)
}

func TestLedgerSubmitTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "send_tx_commit", req.Method)

		params, _ := req.Params.(map[string]interface{})
		call, _ := params["signed_call"].(map[string]interface{})
		assert.Equal(t, "resolver.testnet", call["signer_id"])
		assert.Equal(t, "casino.testnet", call["receiver_id"])
		assert.NotEmpty(t, call["signature"])

		rpcResult(t, w, map[string]interface{}{
			"transaction": map[string]string{"hash": "9wXyz"},
			"status":      map[string]interface{}{},
		})
	}))
	defer server.Close()

	client, err := NewLedgerClient(testRPCConfig(server.URL), testSigningKey(t))
	require.NoError(t, err)
	require.True(t, client.CanSign())

	result, err := client.SubmitTransaction(context.Background(), "casino.testnet", "resolve_game",
		map[string]interface{}{"game_id": "g1", "did_win": true, "multiplier": "2.1"}, "resolver.testnet")
	require.NoError(t, err)
	assert.Equal(t, "9wXyz", result.TransactionHash)
}

func TestLedgerSubmitWithoutKeyFails(t *testing.T) {
	client, err := NewLedgerClient(testRPCConfig("http://unused"), "")
	require.NoError(t, err)

	_, err = client.SubmitTransaction(context.Background(), "casino.testnet", "resolve_game", nil, "resolver.testnet")
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestLedgerSubmitContractRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rpcResult(t, w, map[string]interface{}{
			"transaction": map[string]string{"hash": "abc"},
			"status": map[string]interface{}{
				"Failure": map[string]interface{}{
					"ActionError": map[string]interface{}{
						"kind": map[string]interface{}{
							"FunctionCallError": map[string]string{
								"ExecutionError": "Smart contract panicked: Game already resolved",
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client, err := NewLedgerClient(testRPCConfig(server.URL), testSigningKey(t))
	require.NoError(t, err)

	_, err = client.SubmitTransaction(context.Background(), "casino.testnet", "resolve_game",
		map[string]interface{}{"game_id": "g1"}, "resolver.testnet")
	require.Error(t, err)

	var rejected *ContractRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Message, "already resolved")
	assert.True(t, IsGameAlreadySettled(err))
}

func TestIsGameAlreadySettled(t *testing.T) {
	assert.True(t, IsGameAlreadySettled(&ContractRejectedError{Message: "Game already resolved"}))
	assert.True(t, IsGameAlreadySettled(&ContractRejectedError{Message: "game not found"}))
	assert.False(t, IsGameAlreadySettled(&ContractRejectedError{Message: "multiplier out of range"}))
	assert.False(t, IsGameAlreadySettled(ErrRPCUnavailable))
	assert.False(t, IsGameAlreadySettled(nil))
}

func TestParsePrivateKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	t.Run("FullKey", func(t *testing.T) {
		key, err := parsePrivateKey("ed25519:" + base58.Encode(priv))
		require.NoError(t, err)
		assert.Equal(t, priv, key)
	})

	t.Run("Seed", func(t *testing.T) {
		key, err := parsePrivateKey("ed25519:" + base58.Encode(priv.Seed()))
		require.NoError(t, err)
		assert.Equal(t, priv, key)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := parsePrivateKey("ed25519:abc0")
		assert.Error(t, err)
	})
}
