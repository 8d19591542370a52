package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	MongoDB   MongoDBConfig   `json:"mongodb"`
	RPC       RPCConfig       `json:"rpc"`
	Cache     CacheConfig     `json:"cache"`
	Resolver  ResolverConfig  `json:"resolver"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// MongoDBConfig holds the API-key store connection configuration
type MongoDBConfig struct {
	URI              string        `json:"uri"`
	Database         string        `json:"database"`
	APIKeyCollection string        `json:"api_key_collection"`
	ConnectTimeout   time.Duration `json:"connect_timeout"`
	MaxPoolSize      uint64        `json:"max_pool_size"`
}

// RPCConfig holds ledger node RPC configuration
type RPCConfig struct {
	Endpoint   string        `json:"endpoint"`
	NetworkID  string        `json:"network_id"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
}

// CacheConfig holds balance cache configuration
type CacheConfig struct {
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"max_entries"`
}

// ResolverConfig holds the settlement identity and pacing knobs.
// PrivateKey is the signing credential of the resolver account; its
// absence is a hard configuration error for any settlement path.
type ResolverConfig struct {
	ContractID      string        `json:"contract_id"`
	AccountID       string        `json:"account_id"`
	PrivateKey      string        `json:"-"`
	PacingDelay     time.Duration `json:"pacing_delay"`
	PollInterval    time.Duration `json:"poll_interval"`
	MetricsPort     string        `json:"metrics_port"`
	FallbackBalance string        `json:"fallback_balance"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	WindowSize        time.Duration `json:"window_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		MongoDB: MongoDBConfig{
			URI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:         getEnv("MONGODB_DATABASE", "casino_ledger"),
			APIKeyCollection: getEnv("MONGODB_APIKEY_COLLECTION", "api_keys"),
			ConnectTimeout:   getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:      getUint64Env("MONGODB_MAX_POOL_SIZE", 100),
		},
		RPC: RPCConfig{
			Endpoint:   getEnv("LEDGER_RPC_ENDPOINT", "https://rpc.testnet.near.org"),
			NetworkID:  getEnv("LEDGER_NETWORK_ID", "testnet"),
			Timeout:    getDurationEnv("LEDGER_RPC_TIMEOUT", 30*time.Second),
			MaxRetries: getIntEnv("LEDGER_RPC_MAX_RETRIES", 3),
			RetryDelay: getDurationEnv("LEDGER_RPC_RETRY_DELAY", 1*time.Second),
		},
		Cache: CacheConfig{
			TTL:        getDurationEnv("BALANCE_CACHE_TTL", 30*time.Second),
			MaxEntries: getIntEnv("BALANCE_CACHE_MAX_ENTRIES", 100),
		},
		Resolver: ResolverConfig{
			ContractID:      getEnv("CASINO_CONTRACT_ID", "casino.testnet"),
			AccountID:       getEnv("RESOLVER_ACCOUNT_ID", ""),
			PrivateKey:      getEnv("RESOLVER_PRIVATE_KEY", ""),
			PacingDelay:     getDurationEnv("RESOLVER_PACING_DELAY", 2*time.Second),
			PollInterval:    getDurationEnv("RESOLVER_POLL_INTERVAL", 30*time.Second),
			MetricsPort:     getEnv("RESOLVER_METRICS_PORT", "9091"),
			FallbackBalance: getEnv("BALANCE_FALLBACK_VALUE", "0.0000"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
			WindowSize:        getDurationEnv("RATE_LIMIT_WINDOW_SIZE", time.Minute),
			CleanupInterval:   getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: getStringSliceEnv("LOG_OUTPUT_PATHS", []string{"stdout"}),
		},
	}
}

// HasSigningKey reports whether the resolver credential is configured.
func (c *ResolverConfig) HasSigningKey() bool {
	return c.AccountID != "" && c.PrivateKey != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uint64Value, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint64Value
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}
