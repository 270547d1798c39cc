package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/solsplash/service/config"
	"github.com/brojonat/solsplash/service/faucet"
	"github.com/brojonat/solsplash/service/metrics"
	natspkg "github.com/brojonat/solsplash/service/nats"
	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/server"
	"github.com/brojonat/solsplash/service/session"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/brojonat/solsplash/service/wallet"
	"github.com/shopspring/decimal"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"network", cfg.Network,
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics(nil)

	// Initialize Solana RPC client
	// Note: For premium RPC endpoints, include API key in the URL
	solanaRPC := solana.NewRPCClient(cfg.SolanaRPCURL)
	solanaClient := solana.NewClient(solanaRPC, cfg.Network, m, logger)
	logger.Info("initialized solana RPC client", "network", cfg.Network)

	sess := session.New(solanaClient, newWallet(cfg), session.Options{
		Network:     cfg.Network,
		AutoConnect: cfg.WalletAutoConnect,
	}, m, logger)
	sess.Start(ctx)
	if sess.State().Connected {
		if _, err := sess.RefreshBalance(ctx); err != nil {
			logger.Warn("failed to fetch initial balance", "error", err)
		}
	}

	notifier, err := newNotifier(cfg, logger, m)
	if err != nil {
		logger.Error("failed to initialize notifier", "error", err)
		os.Exit(1)
	}

	history := faucet.NewHistory(sess, notifier, faucet.HistoryOptions{
		Limit:        cfg.HistoryLimit,
		Pacing:       cfg.HistoryPacing,
		FailureDelay: cfg.HistoryFailureDelay,
		Cooldown:     cfg.HistoryCooldown,
	}, m, logger)
	transfer := faucet.NewTransfer(sess, history, notifier, cfg.TransferRefreshDelay, m, logger)
	defer transfer.Close()

	flows := server.Flows{
		Airdrop:  faucet.NewAirdrop(sess, notifier, decimal.NewFromFloat(cfg.AirdropMaxHint), m, logger),
		Transfer: transfer,
		History:  history,
		Signer:   faucet.NewSigner(sess, notifier, m, logger),
	}

	// Initialize HTTP server
	httpServer := server.New(cfg.ServerAddr, sess, flows, notifier, m, logger)
	if err := httpServer.WithTemplates(); err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	logger.Info("server initialized, all dependencies ready",
		"wallet", cfg.WalletKind,
		"nats_url", cfg.NATSURL,
		"history_limit", cfg.HistoryLimit,
	)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}
		if err := sess.Stop(shutdownCtx); err != nil {
			logger.Warn("failed to disconnect wallet", "error", err)
		}

		logger.Info("server shutdown complete")
	}
}

func newWallet(cfg *config.Config) wallet.Wallet {
	if cfg.WalletKind == config.WalletKindKeyfile {
		return wallet.NewKeyfileWallet(cfg.WalletKeypairPath)
	}
	return wallet.NewBurnerWallet()
}

// newNotifier uses NATS when configured and an in-process hub otherwise.
func newNotifier(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (notify.Notifier, error) {
	if cfg.NATSURL == "" {
		return notify.NewHub(logger, m), nil
	}
	return natspkg.NewNotifier(cfg.NATSURL, logger, m)
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
