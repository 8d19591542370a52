package services

import (
	"context"
	"encoding/json"
	"fmt"

	"casino-ledger-api/internal/models"
)

// contractViewer is the read-only contract call capability the
// pending-game source needs.
type contractViewer interface {
	ViewFunction(ctx context.Context, contractID, method string, args interface{}) ([]byte, error)
}

// ContractPendingGameSource lists unresolved bets by calling the
// casino contract's view method. Resolution state lives on-chain, so a
// game disappears from this list once its resolution lands.
type ContractPendingGameSource struct {
	viewer     contractViewer
	contractID string
}

// NewContractPendingGameSource creates a pending-game source reading
// from contractID through viewer.
func NewContractPendingGameSource(viewer contractViewer, contractID string) *ContractPendingGameSource {
	return &ContractPendingGameSource{
		viewer:     viewer,
		contractID: contractID,
	}
}

// ListPendingGames fetches the full pending set.
func (s *ContractPendingGameSource) ListPendingGames(ctx context.Context) ([]models.PendingGame, error) {
	raw, err := s.viewer.ViewFunction(ctx, s.contractID, "get_pending_games", map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("view pending games: %w", err)
	}

	var games []models.PendingGame
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, fmt.Errorf("decode pending games: %w", err)
	}
	return games, nil
}
