package models

import "time"

// BalanceSource identifies which layer of the fallback chain produced
// a balance.
type BalanceSource string

const (
	BalanceSourceCache    BalanceSource = "cache"
	BalanceSourceWallet   BalanceSource = "wallet"
	BalanceSourceRPC      BalanceSource = "rpc"
	BalanceSourceFallback BalanceSource = "fallback"
)

// BalanceRequest represents the incoming balance resolution request.
// WalletBalance, when present, is the wallet-reported balance in base
// units that the UI layer already fetched; it is preferred over an RPC
// round trip.
type BalanceRequest struct {
	AccountID     string  `json:"accountId"`
	WalletBalance *string `json:"walletBalance,omitempty"`
}

// BalanceResult is the outcome of a balance resolution. Success is
// false exactly when Source is fallback: callers must gate any
// balance-dependent action on Success.
type BalanceResult struct {
	Balance string        `json:"balance"`
	Source  BalanceSource `json:"source"`
	Success bool          `json:"success"`
}

// BalanceResponse is the HTTP envelope for a balance resolution.
type BalanceResponse struct {
	AccountID string        `json:"accountId"`
	Balance   string        `json:"balance"`
	Source    BalanceSource `json:"source"`
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
}

// InvalidateRequest drops cached balances after a balance-mutating
// operation (single account) or a network/account switch (all).
type InvalidateRequest struct {
	AccountID string `json:"accountId"`
	All       bool   `json:"all"`
}
