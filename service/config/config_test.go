package config

import (
	"os"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "devnet", cfg.Network)
	assert.Equal(t, rpc.DevNet_RPC, cfg.SolanaRPCURL)
	assert.Equal(t, WalletKindBurner, cfg.WalletKind)
	assert.True(t, cfg.WalletAutoConnect)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 200*time.Millisecond, cfg.HistoryPacing)
	assert.Equal(t, time.Second, cfg.HistoryFailureDelay)
	assert.Equal(t, 5*time.Second, cfg.HistoryCooldown)
	assert.Equal(t, 5*time.Second, cfg.TransferRefreshDelay)
	assert.Equal(t, 5.0, cfg.AirdropMaxHint)
	assert.Empty(t, cfg.NATSURL)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SOLANA_NETWORK", "testnet")
	os.Setenv("WALLET_KIND", "keyfile")
	os.Setenv("WALLET_KEYPAIR_PATH", "/tmp/id.json")
	os.Setenv("WALLET_AUTO_CONNECT", "false")
	os.Setenv("HISTORY_LIMIT", "25")
	os.Setenv("HISTORY_COOLDOWN", "10s")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, rpc.TestNet_RPC, cfg.SolanaRPCURL)
	assert.Equal(t, WalletKindKeyfile, cfg.WalletKind)
	assert.Equal(t, "/tmp/id.json", cfg.WalletKeypairPath)
	assert.False(t, cfg.WalletAutoConnect)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, 10*time.Second, cfg.HistoryCooldown)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
}

func TestLoad_ExplicitRPCURLWins(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://devnet.helius-rpc.com/?api-key=abc")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://devnet.helius-rpc.com/?api-key=abc", cfg.SolanaRPCURL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	os.Setenv("HISTORY_PACING", "invalid")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "HISTORY_PACING")
}

func TestLoad_MainnetRejected(t *testing.T) {
	os.Setenv("SOLANA_NETWORK", "mainnet")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SOLANA_NETWORK must be one of")
}

func TestValidate_KeyfileRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.WalletKind = WalletKindKeyfile

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WALLET_KEYPAIR_PATH is required")
}

func TestValidate_UnknownWalletKind(t *testing.T) {
	cfg := validConfig()
	cfg.WalletKind = "phantom"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WALLET_KIND must be")
}

func TestValidate_HistoryLimitBounds(t *testing.T) {
	cfg := validConfig()
	cfg.HistoryLimit = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HistoryLimit must be between")
}

func TestValidate_NegativeDuration(t *testing.T) {
	cfg := validConfig()
	cfg.HistoryCooldown = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "durations cannot be negative")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestMustLoad_Panics(t *testing.T) {
	os.Setenv("WALLET_KIND", "keyfile")
	defer cleanupEnv()

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	defer cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

func TestClusterRPCURL(t *testing.T) {
	assert.Equal(t, rpc.DevNet_RPC, ClusterRPCURL("devnet"))
	assert.Equal(t, rpc.TestNet_RPC, ClusterRPCURL("testnet"))
	assert.Equal(t, rpc.LocalNet_RPC, ClusterRPCURL("localnet"))
	assert.Equal(t, rpc.DevNet_RPC, ClusterRPCURL(""))
}

func validConfig() *Config {
	return &Config{
		ServerAddr:           ":8080",
		LogLevel:             "info",
		Network:              "devnet",
		SolanaRPCURL:         rpc.DevNet_RPC,
		WalletKind:           WalletKindBurner,
		HistoryLimit:         10,
		HistoryPacing:        200 * time.Millisecond,
		HistoryFailureDelay:  time.Second,
		HistoryCooldown:      5 * time.Second,
		TransferRefreshDelay: 5 * time.Second,
		AirdropMaxHint:       5,
	}
}

// cleanupEnv clears all environment variables used in tests
func cleanupEnv() {
	for _, key := range []string{
		"SERVER_ADDR",
		"LOG_LEVEL",
		"SOLANA_NETWORK",
		"SOLANA_RPC_URL",
		"WALLET_KIND",
		"WALLET_KEYPAIR_PATH",
		"WALLET_AUTO_CONNECT",
		"HISTORY_LIMIT",
		"HISTORY_PACING",
		"HISTORY_FAILURE_DELAY",
		"HISTORY_COOLDOWN",
		"TRANSFER_REFRESH_DELAY",
		"AIRDROP_MAX_HINT",
		"NATS_URL",
	} {
		os.Unsetenv(key)
	}
}
