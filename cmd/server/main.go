package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"casino-ledger-api/internal/config"
	"casino-ledger-api/internal/handlers"
	"casino-ledger-api/internal/middleware"
	"casino-ledger-api/internal/services"
	"casino-ledger-api/pkg/logger"
	"casino-ledger-api/pkg/metrics"
	"casino-ledger-api/pkg/ratelimiter"
)

// Server represents the main application server
type Server struct {
	httpServer     *http.Server
	config         *config.Config
	authService    *services.AuthService
	ledgerClient   services.LedgerClientInterface
	balanceService *services.BalanceService
	collector      *metrics.Collector
	rateLimiter    *ratelimiter.RateLimiter
	router         *handlers.Router
}

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
	log.Info("Starting casino ledger API server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("rpc_endpoint", cfg.RPC.Endpoint),
		zap.String("contract", cfg.Resolver.ContractID),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.Int("cache_capacity", cfg.Cache.MaxEntries),
		zap.String("environment", cfg.Logging.Environment),
	)

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.GetLogger()

	authService, err := services.NewAuthService(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	ledgerClient, err := newLedgerClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ledgerClient.IsHealthy(ctx); err != nil {
		log.Warn("Ledger RPC health check failed", zap.Error(err))
	} else {
		log.Info("Ledger RPC connection healthy")
	}

	if !cfg.Resolver.HasSigningKey() {
		log.Warn("Resolver signing credential not configured; resolution submissions will be rejected")
	}

	collector := metrics.NewCollector()
	balanceService := services.NewBalanceService(ledgerClient, cfg, collector)

	healthChecker := services.NewHealthChecker(ledgerClient, authService)

	router := handlers.NewRouter(
		handlers.NewBalanceHandler(balanceService),
		handlers.NewResolveHandler(ledgerClient, &cfg.Resolver, collector),
		handlers.NewHealthHandler(healthChecker),
	)

	return &Server{
		config:         cfg,
		authService:    authService,
		ledgerClient:   ledgerClient,
		balanceService: balanceService,
		collector:      collector,
		rateLimiter:    ratelimiter.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowSize),
		router:         router,
	}, nil
}

// newLedgerClient builds the RPC client, or the in-memory mock when
// the endpoint is set to "mock" for local development.
func newLedgerClient(cfg *config.Config) (services.LedgerClientInterface, error) {
	if cfg.RPC.Endpoint == "mock" {
		mock := services.NewMockLedger()
		mock.SetBalance("alice.testnet", "12500000000000000000000000")
		return mock, nil
	}
	return services.NewLedgerClient(&cfg.RPC, cfg.Resolver.PrivateKey)
}

// Start starts the HTTP server with graceful shutdown handling
func (s *Server) Start() error {
	log := logger.GetLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(logger.RecoveryMiddleware())
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.MetricsMiddleware(s.collector))
	engine.Use(s.corsMiddleware())
	engine.Use(s.rateLimiter.Middleware())

	s.router.SetupHealthRoutes(engine)

	api := engine.Group("/api")
	api.Use(middleware.AuthMiddleware(s.authService))
	s.router.SetupAPIRoutes(api)

	engine.GET("/metrics", s.metricsHandler)
	engine.GET("/status", s.statusHandler)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:           engine,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go s.rateLimiterCleanup()

	go func() {
		log.Info("HTTP server listening", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	return s.waitForShutdown()
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) rateLimiterCleanup() {
	ticker := time.NewTicker(s.config.RateLimit.CleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.rateLimiter.Cleanup()
	}
}

// metricsHandler serves the in-process counters as JSON.
func (s *Server) metricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":         "casino-ledger-api",
		"uptime":          s.collector.GetUptime().String(),
		"metrics":         s.collector.GetMetrics(),
		"cache_hit_ratio": s.collector.GetCacheHitRatio(),
		"cache":           s.balanceService.CacheStats(),
	})
}

// statusHandler serves a small config echo for operators.
func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":        "casino-ledger-api",
		"status":         "running",
		"rpc_endpoint":   s.config.RPC.Endpoint,
		"contract":       s.config.Resolver.ContractID,
		"resolver_ready": s.config.Resolver.HasSigningKey(),
		"cache_ttl":      s.config.Cache.TTL.String(),
		"timestamp":      time.Now().UTC(),
	})
}

func (s *Server) waitForShutdown() error {
	log := logger.GetLogger()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info("Shutting down server", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.balanceService.Stop()
	if err := s.authService.Close(); err != nil {
		log.Warn("Key store disconnect failed", zap.Error(err))
	}

	log.Info("Server stopped")
	return nil
}
