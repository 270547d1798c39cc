// Package session owns the single wallet connection shared by every page.
//
// A Session is created once at startup with a cluster connection and exactly one
// wallet. Views read its State and go through it for anything that needs the
// connected account: balance, signing and broadcasting.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/brojonat/solsplash/service/wallet"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// balancePlaces is the number of decimal places the balance is shown with.
const balancePlaces = 4

// Options configures a Session.
type Options struct {
	// Network is the cluster name shown to users and used in explorer links.
	Network string

	// AutoConnect connects the wallet on Start.
	AutoConnect bool
}

// State is a snapshot of the wallet session.
type State struct {
	Connected  bool            `json:"connected"`
	PublicKey  string          `json:"public_key,omitempty"`
	Balance    decimal.Decimal `json:"balance"` // SOL, rounded for display
	HasBalance bool            `json:"has_balance"`
	WalletName string          `json:"wallet"`
	Network    string          `json:"network"`
}

// Session is the shared wallet context.
type Session struct {
	conn    *solana.Client
	wallet  wallet.Wallet
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.RWMutex
	balance    decimal.Decimal
	hasBalance bool
}

// New creates a session for one wallet on one cluster.
func New(conn *solana.Client, w wallet.Wallet, opts Options, m *metrics.Metrics, logger *slog.Logger) *Session {
	return &Session{
		conn:    conn,
		wallet:  w,
		opts:    opts,
		logger:  logger,
		metrics: m,
	}
}

// Start connects the wallet when auto-connect is enabled.
// A failed auto-connect is logged and leaves the session disconnected.
func (s *Session) Start(ctx context.Context) {
	if !s.opts.AutoConnect {
		return
	}
	if _, err := s.Connect(ctx); err != nil {
		s.logger.WarnContext(ctx, "auto-connect failed", "wallet", s.wallet.Name(), "error", err)
	}
}

// Stop disconnects the wallet.
func (s *Session) Stop(ctx context.Context) error {
	return s.Disconnect(ctx)
}

// Connection returns the cluster connection.
func (s *Session) Connection() *solana.Client {
	return s.conn
}

// Network returns the cluster name.
func (s *Session) Network() string {
	return s.opts.Network
}

// Connect connects the wallet and returns its account.
func (s *Session) Connect(ctx context.Context) (solanago.PublicKey, error) {
	pub, err := s.wallet.Connect(ctx)
	if err != nil {
		s.metrics.RecordWalletEvent(s.wallet.Name(), "connect_error")
		return solanago.PublicKey{}, fmt.Errorf("failed to connect wallet: %w", err)
	}
	s.metrics.RecordWalletEvent(s.wallet.Name(), "connect")

	s.logger.InfoContext(ctx, "wallet connected",
		"wallet", s.wallet.Name(),
		"account", pub.String(),
		"network", s.opts.Network,
	)
	return pub, nil
}

// Disconnect disconnects the wallet and forgets the cached balance.
func (s *Session) Disconnect(ctx context.Context) error {
	if err := s.wallet.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect wallet: %w", err)
	}
	s.metrics.RecordWalletEvent(s.wallet.Name(), "disconnect")

	s.mu.Lock()
	s.balance = decimal.Zero
	s.hasBalance = false
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "wallet disconnected", "wallet", s.wallet.Name())
	return nil
}

// PublicKey returns the connected account or wallet.ErrNotConnected.
func (s *Session) PublicKey() (solanago.PublicKey, error) {
	pub, ok := s.wallet.PublicKey()
	if !ok {
		return solanago.PublicKey{}, wallet.ErrNotConnected
	}
	return pub, nil
}

// State returns the current session snapshot with the last fetched balance.
func (s *Session) State() State {
	st := State{
		WalletName: s.wallet.Name(),
		Network:    s.opts.Network,
	}

	pub, ok := s.wallet.PublicKey()
	if !ok {
		return st
	}
	st.Connected = true
	st.PublicKey = pub.String()

	s.mu.RLock()
	st.Balance = s.balance
	st.HasBalance = s.hasBalance
	s.mu.RUnlock()
	return st
}

// RefreshBalance fetches the balance of the connected account and returns the
// updated state. The balance is kept in SOL rounded to four places.
func (s *Session) RefreshBalance(ctx context.Context) (State, error) {
	pub, err := s.PublicKey()
	if err != nil {
		return s.State(), err
	}

	lamports, err := s.conn.GetBalance(ctx, pub)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to refresh balance",
			"account", pub.String(),
			"error", err,
		)
		return s.State(), err
	}

	s.mu.Lock()
	s.balance = solana.LamportsToSOL(lamports).Round(balancePlaces)
	s.hasBalance = true
	s.mu.Unlock()

	return s.State(), nil
}

// SignMessage signs message with the connected wallet.
func (s *Session) SignMessage(ctx context.Context, message []byte) (solanago.Signature, error) {
	return s.wallet.SignMessage(ctx, message)
}

// SendTransaction wraps instructions in a transaction paid by the connected account,
// has the wallet sign it and broadcasts it. Returns the transaction signature.
func (s *Session) SendTransaction(ctx context.Context, instructions ...solanago.Instruction) (solanago.Signature, error) {
	pub, err := s.PublicKey()
	if err != nil {
		return solanago.Signature{}, err
	}

	blockhash, err := s.conn.LatestBlockhash(ctx)
	if err != nil {
		return solanago.Signature{}, err
	}

	tx, err := solanago.NewTransaction(instructions, blockhash, solanago.TransactionPayer(pub))
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if err := s.wallet.SignTransaction(ctx, tx); err != nil {
		return solanago.Signature{}, err
	}

	sig, err := s.conn.SendTransaction(ctx, tx)
	if err != nil {
		return solanago.Signature{}, err
	}

	s.logger.InfoContext(ctx, "transaction sent",
		"account", pub.String(),
		"signature", sig.String(),
	)
	return sig, nil
}
