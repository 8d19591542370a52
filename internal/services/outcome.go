package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"casino-ledger-api/internal/models"
)

// RandomOutcomeProvider draws outcomes from a weighted distribution:
// winProbability chance of a win, with a multiplier uniform in
// [minMultiplier, maxMultiplier) on a win and 1.0 on a loss. It stands
// in for an auditable randomness source during development.
type RandomOutcomeProvider struct {
	rng            *rand.Rand
	mu             sync.Mutex
	winProbability float64
	minMultiplier  float64
	maxMultiplier  float64
}

// NewRandomOutcomeProvider creates a provider with the default policy:
// 50% win, multiplier in [1.5, 3.0).
func NewRandomOutcomeProvider() *RandomOutcomeProvider {
	return &RandomOutcomeProvider{
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		winProbability: 0.5,
		minMultiplier:  1.5,
		maxMultiplier:  3.0,
	}
}

// Determine draws the outcome for game.
func (p *RandomOutcomeProvider) Determine(game models.PendingGame) models.ResolutionOutcome {
	p.mu.Lock()
	didWin := p.rng.Float64() < p.winProbability
	draw := p.rng.Float64()
	p.mu.Unlock()

	multiplier := decimal.NewFromInt(1)
	if didWin {
		span := p.maxMultiplier - p.minMultiplier
		multiplier = decimal.NewFromFloat(p.minMultiplier + draw*span).Round(2)
	}

	return models.ResolutionOutcome{
		GameID:     game.GameID,
		DidWin:     didWin,
		Multiplier: multiplier,
	}
}
