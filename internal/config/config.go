package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "AssetCustody"
	defaultAppEnv            = "development"
	defaultPort              = "8000"
	defaultLogLevel          = "info"
	defaultSorobanCLI        = "stellar"
	defaultRPCURL            = "https://soroban-testnet.stellar.org"
	defaultNetworkPassphrase = "Test SDF Network ; September 2015"
	defaultHorizonURL        = "https://horizon-testnet.stellar.org"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	idemTTLSecondsEnvVar     = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar         = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar   = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// Toolchain settings required to build and broadcast contract invocations.
	// Empty ContractID/SourceAccount is a configuration error surfaced by the
	// bridge at invocation time, not a core-logic error.
	SorobanCLI        string
	ContractID        string
	SourceAccount     string
	RPCURL            string
	NetworkPassphrase string
	HorizonURL        string

	// DatabaseURL and RedisURL are optional in development; when unset the
	// service falls back to in-memory stores.
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		SorobanCLI:        getEnv("SOROBAN_CLI", defaultSorobanCLI),
		ContractID:        os.Getenv("ASSET_CONTRACT_ID"),
		SourceAccount:     os.Getenv("DEPLOYER_ID"),
		RPCURL:            getEnv("RPC_URL", defaultRPCURL),
		NetworkPassphrase: getEnv("NETWORK_PASSPHRASE", defaultNetworkPassphrase),
		HorizonURL:        getEnv("HORIZON_URL", defaultHorizonURL),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	return cfg, nil
}

// IsDev reports whether the application runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
