package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"casino-ledger-api/internal/config"
	"casino-ledger-api/internal/models"
	"casino-ledger-api/internal/services"
	"casino-ledger-api/pkg/logger"
	"casino-ledger-api/pkg/metrics"
)

// The resolver worker is the settlement loop's host process: it polls
// the casino contract for pending games and writes outcomes back,
// pacing submissions for the single resolver account.
func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	if err := logger.Initialize(&logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	// Settlement cannot run without a signing identity. This is an
	// operator problem, not a retryable one.
	if !cfg.Resolver.HasSigningKey() {
		log.Fatal("RESOLVER_ACCOUNT_ID and RESOLVER_PRIVATE_KEY must be set")
	}

	ledger, source, err := buildLedger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize ledger client", zap.Error(err))
	}

	collector := metrics.NewCollector()
	settlement := services.NewSettlementService(ledger, source, services.NewRandomOutcomeProvider(), &cfg.Resolver, collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Prometheus metrics and liveness probe, worker-style.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			probeCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ledger.IsHealthy(probeCtx); err != nil {
				http.Error(w, "rpc", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := ":" + cfg.Resolver.MetricsPort
		log.Info("Resolver metrics listening", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	log.Info("Resolver worker started",
		zap.String("contract", cfg.Resolver.ContractID),
		zap.String("resolver_account", cfg.Resolver.AccountID),
		zap.String("rpc_endpoint", cfg.RPC.Endpoint),
	)

	if err := settlement.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Settlement loop exited", zap.Error(err))
	}

	log.Info("Resolver worker stopped")
}

// buildLedger constructs the RPC client and contract-backed pending
// source, or the seeded in-memory mock when LEDGER_RPC_ENDPOINT=mock.
func buildLedger(cfg *config.Config) (services.LedgerClientInterface, services.PendingGameSource, error) {
	if cfg.RPC.Endpoint == "mock" {
		mock := services.NewMockLedger()
		mock.AddPendingGame(models.PendingGame{
			GameID:   "demo-1",
			Player:   "alice.testnet",
			Amount:   "1000000000000000000000000",
			GameType: "mines",
		})
		return mock, services.NewContractPendingGameSource(mock, cfg.Resolver.ContractID), nil
	}

	client, err := services.NewLedgerClient(&cfg.RPC, cfg.Resolver.PrivateKey)
	if err != nil {
		return nil, nil, err
	}
	return client, services.NewContractPendingGameSource(client, cfg.Resolver.ContractID), nil
}
