package services

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"casino-ledger-api/internal/config"
	"casino-ledger-api/internal/models"
)

// Sentinel errors for the ledger boundary. ContractRejectedError is a
// separate type because it carries the contract's own message, which
// the settlement path inspects for idempotency.
var (
	ErrRPCUnavailable  = errors.New("ledger RPC unavailable")
	ErrUnknownAccount  = errors.New("account does not exist on-chain")
	ErrInsufficientGas = errors.New("insufficient gas for transaction")
	ErrNoSigningKey    = errors.New("resolver signing key not configured")
)

// ContractRejectedError means the contract executed and refused the
// call. The message is the contract's error string verbatim.
type ContractRejectedError struct {
	Message string
}

func (e *ContractRejectedError) Error() string {
	return fmt.Sprintf("contract rejected: %s", e.Message)
}

// IsGameAlreadySettled reports whether err is a contract rejection
// whose message indicates the game was already resolved or no longer
// exists. Either way the intended side effect already happened, so the
// settlement path treats it as success.
func IsGameAlreadySettled(err error) bool {
	var rejected *ContractRejectedError
	if !errors.As(err, &rejected) {
		return false
	}
	msg := strings.ToLower(rejected.Message)
	return strings.Contains(msg, "already resolved") ||
		strings.Contains(msg, "game not found") ||
		strings.Contains(msg, "does not exist")
}

// LedgerClient is the JSON-RPC adapter for the casino's ledger node.
// It owns per-attempt timeouts and bounded retry with growing delay;
// only transport-level failures are retried.
type LedgerClient struct {
	httpClient *http.Client
	config     *config.RPCConfig
	signerKey  ed25519.PrivateKey
	signerPub  string
	nonce      uint64
}

// NewLedgerClient creates a ledger client. resolverKey may be empty
// for read-only use; SubmitTransaction then fails with ErrNoSigningKey.
func NewLedgerClient(cfg *config.RPCConfig, resolverKey string) (*LedgerClient, error) {
	c := &LedgerClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		nonce:      uint64(time.Now().UnixNano()),
	}

	if resolverKey != "" {
		key, err := parsePrivateKey(resolverKey)
		if err != nil {
			return nil, fmt.Errorf("invalid resolver signing key: %w", err)
		}
		c.signerKey = key
		c.signerPub = "ed25519:" + base58.Encode(key.Public().(ed25519.PublicKey))
	}

	return c, nil
}

// parsePrivateKey decodes an "ed25519:<base58>" signing credential.
func parsePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	raw := strings.TrimPrefix(encoded, "ed25519:")
	decoded, err := base58.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("base58 decode: %w", err)
	}
	switch len(decoded) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(decoded), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(decoded), nil
	default:
		return nil, fmt.Errorf("unexpected key length %d", len(decoded))
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Name  string `json:"name"`
	Cause struct {
		Name string `json:"name"`
	} `json:"cause"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip with retry on transport
// failures. RPC-level errors (account missing, contract rejection) are
// returned without retry.
func (lc *LedgerClient) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= lc.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := lc.config.RetryDelay * time.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrRPCUnavailable, ctx.Err())
			}
		}

		result, rpcErr, transportErr := lc.doOnce(ctx, body)
		if transportErr != nil {
			lastErr = transportErr
			continue
		}
		if rpcErr != nil {
			return nil, classifyRPCError(rpcErr)
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRPCUnavailable, lc.config.MaxRetries+1, lastErr)
}

func (lc *LedgerClient) doOnce(ctx context.Context, body []byte) (json.RawMessage, *rpcError, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, lc.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, lc.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := lc.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, nil, fmt.Errorf("node returned HTTP %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, nil, fmt.Errorf("decode rpc response: %w", err)
	}
	return rpcResp.Result, rpcResp.Error, nil
}

func classifyRPCError(rpcErr *rpcError) error {
	name := rpcErr.Cause.Name
	if name == "" {
		name = rpcErr.Name
	}
	data := strings.ToLower(rpcErr.Data + " " + rpcErr.Message)

	switch {
	case name == "UNKNOWN_ACCOUNT" || strings.Contains(data, "does not exist while viewing"):
		return ErrUnknownAccount
	case strings.Contains(data, "exceeded the prepaid gas") || strings.Contains(data, "not enough balance to cover gas"):
		return ErrInsufficientGas
	case name == "TIMEOUT_ERROR" || name == "INTERNAL_ERROR":
		return fmt.Errorf("%w: %s", ErrRPCUnavailable, rpcErr.Message)
	default:
		return &ContractRejectedError{Message: firstNonEmpty(rpcErr.Data, rpcErr.Message, name)}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// viewAccountResult is the node's account view payload; Amount is the
// spendable balance in base units.
type viewAccountResult struct {
	Amount string `json:"amount"`
}

// GetBalance fetches the account's balance in base units.
func (lc *LedgerClient) GetBalance(ctx context.Context, accountID string) (string, error) {
	result, err := lc.call(ctx, "query", map[string]interface{}{
		"request_type": "view_account",
		"finality":     "final",
		"account_id":   accountID,
	})
	if err != nil {
		return "", err
	}

	var view viewAccountResult
	if err := json.Unmarshal(result, &view); err != nil {
		return "", fmt.Errorf("%w: malformed view_account result: %v", ErrRPCUnavailable, err)
	}
	if view.Amount == "" {
		return "", ErrUnknownAccount
	}
	return view.Amount, nil
}

// callFunctionResult carries a contract view call's return bytes.
type callFunctionResult struct {
	Result []byte `json:"result"`
}

// ViewFunction performs a read-only contract call and returns the raw
// result bytes (JSON emitted by the contract).
func (lc *LedgerClient) ViewFunction(ctx context.Context, contractID, method string, args interface{}) ([]byte, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal view args: %w", err)
	}

	result, err := lc.call(ctx, "query", map[string]interface{}{
		"request_type": "call_function",
		"finality":     "final",
		"account_id":   contractID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(argsJSON),
	})
	if err != nil {
		return nil, err
	}

	var view callFunctionResult
	if err := json.Unmarshal(result, &view); err != nil {
		return nil, fmt.Errorf("%w: malformed call_function result: %v", ErrRPCUnavailable, err)
	}
	return view.Result, nil
}

// signedCall is the node's signed contract-call envelope. The
// signature covers the SHA-256 digest of the canonical payload, so the
// node can verify authorship without re-serializing.
type signedCall struct {
	SignerID   string `json:"signer_id"`
	PublicKey  string `json:"public_key"`
	Nonce      uint64 `json:"nonce"`
	ReceiverID string `json:"receiver_id"`
	MethodName string `json:"method_name"`
	ArgsBase64 string `json:"args_base64"`
	Signature  string `json:"signature,omitempty"`
}

type submitResult struct {
	Transaction struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
	Status struct {
		Failure json.RawMessage `json:"Failure"`
	} `json:"status"`
}

// SubmitTransaction signs a contract call with the resolver key and
// submits it, waiting for execution. Transactions from one signer are
// ordered by nonce, so callers must not submit concurrently.
func (lc *LedgerClient) SubmitTransaction(ctx context.Context, contractID, method string, args map[string]interface{}, signerAccountID string) (*models.SubmitResult, error) {
	if lc.signerKey == nil {
		return nil, ErrNoSigningKey
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal call args: %w", err)
	}

	call := signedCall{
		SignerID:   signerAccountID,
		PublicKey:  lc.signerPub,
		Nonce:      atomic.AddUint64(&lc.nonce, 1),
		ReceiverID: contractID,
		MethodName: method,
		ArgsBase64: base64.StdEncoding.EncodeToString(argsJSON),
	}

	payload, err := json.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("marshal signing payload: %w", err)
	}
	digest := sha256.Sum256(payload)
	call.Signature = "ed25519:" + base58.Encode(ed25519.Sign(lc.signerKey, digest[:]))

	result, err := lc.call(ctx, "send_tx_commit", map[string]interface{}{
		"signed_call": call,
	})
	if err != nil {
		return nil, err
	}

	var submitted submitResult
	if err := json.Unmarshal(result, &submitted); err != nil {
		return nil, fmt.Errorf("%w: malformed send_tx result: %v", ErrRPCUnavailable, err)
	}

	if len(submitted.Status.Failure) > 0 && string(submitted.Status.Failure) != "null" {
		return nil, classifyExecutionFailure(submitted.Status.Failure)
	}

	return &models.SubmitResult{TransactionHash: submitted.Transaction.Hash}, nil
}

// classifyExecutionFailure maps an execution failure recorded on-chain
// to the ledger error taxonomy.
func classifyExecutionFailure(failure json.RawMessage) error {
	msg := strings.ToLower(string(failure))
	switch {
	case strings.Contains(msg, "exceeded the prepaid gas"), strings.Contains(msg, "gasexceeded"):
		return ErrInsufficientGas
	default:
		var wrapper struct {
			ActionError struct {
				Kind struct {
					FunctionCallError struct {
						ExecutionError string `json:"ExecutionError"`
					} `json:"FunctionCallError"`
				} `json:"kind"`
			} `json:"ActionError"`
		}
		if err := json.Unmarshal(failure, &wrapper); err == nil {
			if execErr := wrapper.ActionError.Kind.FunctionCallError.ExecutionError; execErr != "" {
				return &ContractRejectedError{Message: execErr}
			}
		}
		return &ContractRejectedError{Message: string(failure)}
	}
}

// IsHealthy checks that the RPC endpoint answers a status probe.
func (lc *LedgerClient) IsHealthy(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := lc.call(probeCtx, "status", map[string]interface{}{}); err != nil {
		return fmt.Errorf("RPC health check failed: %w", err)
	}
	return nil
}

// CanSign reports whether this client holds a signing credential.
func (lc *LedgerClient) CanSign() bool {
	return lc.signerKey != nil
}
