package config

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/kelseyhightower/envconfig"
)

// Wallet kinds selectable at startup.
const (
	WalletKindBurner  = "burner"
	WalletKindKeyfile = "keyfile"
)

// Config holds all application configuration loaded from environment variables.
// All fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string `envconfig:"SERVER_ADDR" default:":8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	// Solana configuration. Only test clusters are accepted.
	Network      string `envconfig:"SOLANA_NETWORK" default:"devnet"`
	SolanaRPCURL string `envconfig:"SOLANA_RPC_URL"`

	// Wallet configuration
	WalletKind        string `envconfig:"WALLET_KIND" default:"burner"`
	WalletKeypairPath string `envconfig:"WALLET_KEYPAIR_PATH"`
	WalletAutoConnect bool   `envconfig:"WALLET_AUTO_CONNECT" default:"true"`

	// History configuration
	HistoryLimit        int           `envconfig:"HISTORY_LIMIT" default:"10"`
	HistoryPacing       time.Duration `envconfig:"HISTORY_PACING" default:"200ms"`
	HistoryFailureDelay time.Duration `envconfig:"HISTORY_FAILURE_DELAY" default:"1s"`
	HistoryCooldown     time.Duration `envconfig:"HISTORY_COOLDOWN" default:"5s"`

	// Transfer configuration
	TransferRefreshDelay time.Duration `envconfig:"TRANSFER_REFRESH_DELAY" default:"5s"`

	// Airdrop configuration. The max is rendered as an input hint only.
	AirdropMaxHint float64 `envconfig:"AIRDROP_MAX_HINT" default:"5"`

	// NATS configuration (optional, in-process notifications when empty)
	NATSURL string `envconfig:"NATS_URL"`
}

// Load reads configuration from environment variables and validates all fields.
// Returns an error if any configuration is invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Default the RPC endpoint to the public cluster URL
	if cfg.SolanaRPCURL == "" {
		cfg.SolanaRPCURL = ClusterRPCURL(cfg.Network)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	switch c.Network {
	case "devnet", "testnet", "localnet":
	default:
		errs = append(errs, fmt.Errorf("SOLANA_NETWORK must be one of devnet, testnet, localnet (got %q)", c.Network))
	}

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	switch c.WalletKind {
	case WalletKindBurner:
	case WalletKindKeyfile:
		if c.WalletKeypairPath == "" {
			errs = append(errs, fmt.Errorf("WALLET_KEYPAIR_PATH is required when WALLET_KIND is %q", WalletKindKeyfile))
		}
	default:
		errs = append(errs, fmt.Errorf("WALLET_KIND must be %q or %q (got %q)", WalletKindBurner, WalletKindKeyfile, c.WalletKind))
	}

	if c.HistoryLimit < 1 || c.HistoryLimit > 1000 {
		errs = append(errs, fmt.Errorf("HistoryLimit must be between 1 and 1000"))
	}

	if c.HistoryPacing < 0 || c.HistoryFailureDelay < 0 || c.HistoryCooldown < 0 || c.TransferRefreshDelay < 0 {
		errs = append(errs, fmt.Errorf("durations cannot be negative"))
	}

	if c.AirdropMaxHint <= 0 {
		errs = append(errs, fmt.Errorf("AirdropMaxHint must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// ClusterRPCURL returns the public RPC endpoint for a test cluster.
func ClusterRPCURL(network string) string {
	switch network {
	case "testnet":
		return rpc.TestNet_RPC
	case "localnet":
		return rpc.LocalNet_RPC
	default:
		return rpc.DevNet_RPC
	}
}
