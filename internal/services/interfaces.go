package services

import (
	"context"

	"casino-ledger-api/internal/models"
	"casino-ledger-api/pkg/cache"
)

// LedgerClientInterface defines the ledger RPC operations the core
// consumes. Implementations are treated as unreliable: a failed
// SubmitTransaction may still have been accepted by the network.
type LedgerClientInterface interface {
	// GetBalance returns the account's spendable balance in base units.
	GetBalance(ctx context.Context, accountID string) (string, error)
	// SubmitTransaction signs and submits a contract call.
	SubmitTransaction(ctx context.Context, contractID, method string, args map[string]interface{}, signerAccountID string) (*models.SubmitResult, error)
	// IsHealthy checks that the RPC endpoint is responsive.
	IsHealthy(ctx context.Context) error
}

// WalletSource exposes balances the wallet layer already holds, so a
// resolution can skip the RPC round trip. AccountBalance returns the
// base-unit balance for accountID if the wallet knows it.
type WalletSource interface {
	AccountBalance(accountID string) (string, bool)
}

// BalanceServiceInterface defines the balance resolution operations
type BalanceServiceInterface interface {
	Resolve(ctx context.Context, accountID string, wallet WalletSource) models.BalanceResult
	Invalidate(accountID string)
	InvalidateAll()
	CacheStats() cache.Stats
}

// PendingGameSource lists bets awaiting resolution. The full set is
// fetched each poll; no pagination contract is assumed.
type PendingGameSource interface {
	ListPendingGames(ctx context.Context) ([]models.PendingGame, error)
}

// OutcomeProvider determines the result for a pending game. The
// shipped implementation is a weighted random draw; production plugs
// in an auditable randomness or game-logic source.
type OutcomeProvider interface {
	Determine(game models.PendingGame) models.ResolutionOutcome
}

// AuthServiceInterface defines the interface for API-key validation
type AuthServiceInterface interface {
	ValidateAPIKey(key string) (*models.APIKey, error)
}
