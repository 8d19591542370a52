package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"casino-ledger-api/internal/config"
	"casino-ledger-api/internal/models"
	"casino-ledger-api/pkg/cache"
	"casino-ledger-api/pkg/logger"
	"casino-ledger-api/pkg/metrics"
	"casino-ledger-api/pkg/mutex"
)

// BalanceService answers balance queries through a fallback chain:
// cache, then the wallet-reported balance, then the ledger RPC, then a
// conservative fixed default. It owns the cache exclusively; every
// successful live read is written through.
type BalanceService struct {
	ledger       LedgerClientInterface
	cache        *cache.BalanceCache
	requestMutex *mutex.KeyedMutex
	metrics      *metrics.Collector
	fallback     string
}

// NewBalanceService creates a BalanceService with its own cache
// instance sized from cfg.
func NewBalanceService(ledger LedgerClientInterface, cfg *config.Config, collector *metrics.Collector) *BalanceService {
	return &BalanceService{
		ledger:       ledger,
		cache:        cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries),
		requestMutex: mutex.New(cfg.Cache.TTL * 2),
		metrics:      collector,
		fallback:     cfg.Resolver.FallbackBalance,
	}
}

// Resolve returns the account's spendable balance in display units.
// wallet may be nil. The returned result's Success is false only when
// every source failed; that fallback value is never cached, so a
// failed lookup cannot pollute later ones.
func (bs *BalanceService) Resolve(ctx context.Context, accountID string, wallet WalletSource) models.BalanceResult {
	log := logger.GetLogger().WithContext(ctx).WithFields(map[string]interface{}{
		"account_id": accountID,
	})

	// Common path: a valid cache entry costs no network calls.
	if entry, found := bs.cache.Get(accountID); found {
		bs.metrics.RecordCacheHit()
		log.Debug("Balance served from cache")
		return models.BalanceResult{
			Balance: entry.Balance,
			Source:  models.BalanceSourceCache,
			Success: true,
		}
	}
	bs.metrics.RecordCacheMiss()

	// The wallet already holds this data one hop closer than the RPC.
	if wallet != nil {
		if raw, ok := wallet.AccountBalance(accountID); ok {
			if display, err := ToDisplayUnits(raw); err == nil {
				bs.metrics.RecordWalletRead()
				bs.cache.Put(accountID, display)
				log.Debug("Balance served from wallet", zap.String("balance", display))
				return models.BalanceResult{
					Balance: display,
					Source:  models.BalanceSourceWallet,
					Success: true,
				}
			}
			log.Warn("Wallet reported an unparseable balance", zap.String("raw", raw))
		}
	}

	// Serialize concurrent misses for the same account so only one
	// caller pays the RPC cost.
	lock := bs.requestMutex.Get(accountID)
	lock.Lock()
	defer lock.Unlock()

	if entry, found := bs.cache.Get(accountID); found {
		bs.metrics.RecordCacheHit()
		log.Debug("Balance cached by a concurrent request")
		return models.BalanceResult{
			Balance: entry.Balance,
			Source:  models.BalanceSourceCache,
			Success: true,
		}
	}

	rpcStart := time.Now()
	raw, err := bs.ledger.GetBalance(ctx, accountID)
	bs.metrics.RecordRPCCall(time.Since(rpcStart), err == nil)

	if err == nil {
		if display, convErr := ToDisplayUnits(raw); convErr == nil {
			bs.cache.Put(accountID, display)
			log.Debug("Balance served from RPC", zap.String("balance", display))
			return models.BalanceResult{
				Balance: display,
				Source:  models.BalanceSourceRPC,
				Success: true,
			}
		} else {
			err = convErr
		}
	}

	// All sources exhausted. Serve the conservative default so the
	// caller's rendering path survives; Success=false tells it this is
	// not a spendable-amount truth.
	bs.metrics.RecordFallback()
	log.Warn("All balance sources failed, serving fallback", zap.Error(err))
	return models.BalanceResult{
		Balance: bs.fallback,
		Source:  models.BalanceSourceFallback,
		Success: false,
	}
}

// Invalidate drops the cached balance for one account. Called after
// any operation known to change it, such as a bet placement.
func (bs *BalanceService) Invalidate(accountID string) {
	bs.cache.Invalidate(accountID)
}

// InvalidateAll clears the cache, used on network or account switches.
func (bs *BalanceService) InvalidateAll() {
	bs.cache.InvalidateAll()
}

// CacheStats exposes the cache diagnostics snapshot.
func (bs *BalanceService) CacheStats() cache.Stats {
	return bs.cache.Stats()
}

// Stop shuts down background upkeep.
func (bs *BalanceService) Stop() {
	bs.requestMutex.Stop()
}
