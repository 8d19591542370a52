package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"casino-ledger-api/internal/models"
)

// MockLedger is an in-memory stand-in for the ledger node, used in
// development mode (LEDGER_RPC_ENDPOINT=mock) and by tests. It honors
// the same idempotency contract as the chain: resolving a game twice
// is rejected with the contract's "already resolved" message.
type MockLedger struct {
	mu       sync.Mutex
	balances map[string]string
	pending  []models.PendingGame
	resolved map[string]models.ResolutionOutcome
}

// NewMockLedger creates an empty mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		balances: make(map[string]string),
		resolved: make(map[string]models.ResolutionOutcome),
	}
}

// SetBalance seeds an account balance in base units.
func (m *MockLedger) SetBalance(accountID, baseAmount string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[accountID] = baseAmount
}

// AddPendingGame seeds a bet awaiting resolution.
func (m *MockLedger) AddPendingGame(game models.PendingGame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, game)
}

// ResolvedOutcome returns the recorded outcome for gameID, if any.
func (m *MockLedger) ResolvedOutcome(gameID string) (models.ResolutionOutcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome, ok := m.resolved[gameID]
	return outcome, ok
}

// GetBalance implements LedgerClientInterface.
func (m *MockLedger) GetBalance(ctx context.Context, accountID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[accountID]
	if !ok {
		return "", ErrUnknownAccount
	}
	return balance, nil
}

// SubmitTransaction implements LedgerClientInterface for the
// resolve_game method.
func (m *MockLedger) SubmitTransaction(ctx context.Context, contractID, method string, args map[string]interface{}, signerAccountID string) (*models.SubmitResult, error) {
	if method != "resolve_game" {
		return nil, &ContractRejectedError{Message: fmt.Sprintf("unknown method %q", method)}
	}

	gameID, _ := args["game_id"].(string)
	didWin, _ := args["did_win"].(bool)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, done := m.resolved[gameID]; done {
		return nil, &ContractRejectedError{Message: fmt.Sprintf("game %s already resolved", gameID)}
	}

	idx := -1
	for i, game := range m.pending {
		if game.GameID == gameID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &ContractRejectedError{Message: fmt.Sprintf("game %s not found", gameID)}
	}

	m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
	m.resolved[gameID] = models.ResolutionOutcome{GameID: gameID, DidWin: didWin}

	return &models.SubmitResult{TransactionHash: uuid.New().String()}, nil
}

// ViewFunction implements the contract view surface for
// get_pending_games.
func (m *MockLedger) ViewFunction(ctx context.Context, contractID, method string, args interface{}) ([]byte, error) {
	if method != "get_pending_games" {
		return nil, &ContractRejectedError{Message: fmt.Sprintf("unknown view method %q", method)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	games := m.pending
	if games == nil {
		games = []models.PendingGame{}
	}
	return json.Marshal(games)
}

// IsHealthy implements LedgerClientInterface.
func (m *MockLedger) IsHealthy(ctx context.Context) error {
	return nil
}
