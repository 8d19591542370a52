package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"casino-ledger-api/internal/config"
	"casino-ledger-api/pkg/logger"
	"casino-ledger-api/pkg/metrics"
)

var (
	settlementsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_settlements_resolved_total",
		Help: "Resolution transactions accepted by the ledger, by game type.",
	}, []string{"game_type"})

	settlementsAlreadyDone = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casino_settlements_already_resolved_total",
		Help: "Submissions the contract rejected as already settled (idempotent no-ops).",
	})

	settlementsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_settlements_failed_total",
		Help: "Submissions that failed transiently and left the game pending.",
	}, []string{"game_type"})

	settlementBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casino_settlement_pending_games",
		Help: "Pending games seen on the most recent poll.",
	})
)

// SettlementService discovers bets awaiting an outcome and submits
// resolution transactions. Submissions run strictly one at a time:
// transactions from the resolver account are nonce-ordered, and the
// RPC endpoint is metered.
type SettlementService struct {
	ledger          LedgerClientInterface
	source          PendingGameSource
	outcomes        OutcomeProvider
	metrics         *metrics.Collector
	contractID      string
	resolverAccount string
	pacingDelay     time.Duration
	pollInterval    time.Duration
}

// NewSettlementService wires the settlement loop from its
// collaborators and the resolver configuration.
func NewSettlementService(ledger LedgerClientInterface, source PendingGameSource, outcomes OutcomeProvider, cfg *config.ResolverConfig, collector *metrics.Collector) *SettlementService {
	return &SettlementService{
		ledger:          ledger,
		source:          source,
		outcomes:        outcomes,
		metrics:         collector,
		contractID:      cfg.ContractID,
		resolverAccount: cfg.AccountID,
		pacingDelay:     cfg.PacingDelay,
		pollInterval:    cfg.PollInterval,
	}
}

// RunOnce performs one settlement pass: fetch the full pending set and
// settle each game sequentially. A game whose submission fails
// transiently stays pending for the next pass; its error never aborts
// the rest of the batch. An empty pending set is a no-op, not an error.
func (ss *SettlementService) RunOnce(ctx context.Context) error {
	log := logger.GetLogger()

	games, err := ss.source.ListPendingGames(ctx)
	if err != nil {
		log.Warn("Failed to list pending games, skipping pass", zap.Error(err))
		return err
	}

	settlementBatchSize.Set(float64(len(games)))
	if len(games) == 0 {
		log.Debug("No pending games")
		return nil
	}

	log.Info("Settling pending games", zap.Int("count", len(games)))

	for i, game := range games {
		if err := ctx.Err(); err != nil {
			return err
		}

		gameLog := log.WithFields(map[string]interface{}{
			"game_id":   game.GameID,
			"player":    game.Player,
			"game_type": game.GameType,
		})

		outcome := ss.outcomes.Determine(game)

		result, err := ss.ledger.SubmitTransaction(ctx, ss.contractID, "resolve_game", map[string]interface{}{
			"game_id":    outcome.GameID,
			"did_win":    outcome.DidWin,
			"multiplier": outcome.Multiplier.String(),
		}, ss.resolverAccount)

		switch {
		case err == nil:
			ss.metrics.RecordResolution(false)
			settlementsResolved.WithLabelValues(game.GameType).Inc()
			gameLog.Info("Game resolved",
				zap.Bool("did_win", outcome.DidWin),
				zap.String("multiplier", outcome.Multiplier.String()),
				zap.String("tx_hash", result.TransactionHash),
			)
		case IsGameAlreadySettled(err):
			// The intended side effect already happened; done.
			ss.metrics.RecordResolution(true)
			settlementsAlreadyDone.Inc()
			gameLog.Info("Game was already resolved", zap.Error(err))
		default:
			// Transient: the game stays pending for the next pass.
			ss.metrics.RecordSettlementFailure()
			settlementsFailed.WithLabelValues(game.GameType).Inc()
			gameLog.Warn("Resolution submission failed, leaving game pending", zap.Error(err))
		}

		// Pace submissions to respect the node's rate limits and the
		// signer's nonce sequencing.
		if i < len(games)-1 && ss.pacingDelay > 0 {
			select {
			case <-time.After(ss.pacingDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

// Run repeats RunOnce on the poll interval until ctx is cancelled.
// Pass errors are logged inside RunOnce and never stop the loop.
func (ss *SettlementService) Run(ctx context.Context) error {
	log := logger.GetLogger()
	log.Info("Settlement loop started",
		zap.String("contract", ss.contractID),
		zap.String("resolver", ss.resolverAccount),
		zap.Duration("poll_interval", ss.pollInterval),
		zap.Duration("pacing_delay", ss.pacingDelay),
	)

	ticker := time.NewTicker(ss.pollInterval)
	defer ticker.Stop()

	for {
		_ = ss.RunOnce(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Info("Settlement loop stopped")
			return ctx.Err()
		}
	}
}
