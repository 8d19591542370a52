package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingGame is a placed bet whose outcome has not yet been written
// to the ledger. Amount is in base units (24 decimals).
type PendingGame struct {
	GameID   string `json:"gameId"`
	Player   string `json:"player"`
	Amount   string `json:"amount"`
	GameType string `json:"gameType"`
}

// ResolutionOutcome is the authoritative result for one game.
// Multiplier applies to the wagered amount when DidWin is true.
type ResolutionOutcome struct {
	GameID     string          `json:"gameId"`
	DidWin     bool            `json:"didWin"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// ResolveGameRequest is the resolution submission payload. DidWin and
// Multiplier are pointers so an omitted field is distinguishable from
// a false/zero value.
type ResolveGameRequest struct {
	GameID     string           `json:"gameId"`
	DidWin     *bool            `json:"didWin"`
	Multiplier *decimal.Decimal `json:"multiplier"`
	GameType   string           `json:"gameType,omitempty"`
	Player     string           `json:"player,omitempty"`
}

// ResolveGameResponse is the resolution submission result envelope.
type ResolveGameResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	GameID          string          `json:"gameId,omitempty"`
	DidWin          *bool           `json:"didWin,omitempty"`
	Multiplier      decimal.Decimal `json:"multiplier,omitempty"`
	TransactionHash string          `json:"transactionHash,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// SubmitResult carries the ledger's acknowledgement of a transaction.
type SubmitResult struct {
	TransactionHash string `json:"transactionHash"`
}
