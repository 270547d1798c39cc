package faucet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/session"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/shopspring/decimal"
)

// AirdropQuickAmounts are the preset airdrop amounts in SOL.
var AirdropQuickAmounts = []string{"0.5", "1", "2", "5"}

// AirdropResult is the outcome of a successful airdrop request.
type AirdropResult struct {
	Signature string          `json:"signature"`
	Amount    decimal.Decimal `json:"amount"`
	Lamports  uint64          `json:"lamports"`
	Message   string          `json:"message"`
}

// AirdropView is what the airdrop page renders.
type AirdropView struct {
	Amount       string
	Status       Status
	QuickAmounts []string
	MaxHint      decimal.Decimal
	Connected    bool
	CanSubmit    bool
}

// Airdrop requests test tokens from the cluster faucet for the connected account.
type Airdrop struct {
	session  *session.Session
	notifier notify.Notifier
	maxHint  decimal.Decimal
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	amount string
	status Status
}

// NewAirdrop creates the airdrop flow. maxHint is rendered as the input maximum;
// larger amounts are still submitted and left to the cluster to accept or reject.
func NewAirdrop(sess *session.Session, notifier notify.Notifier, maxHint decimal.Decimal, m *metrics.Metrics, logger *slog.Logger) *Airdrop {
	return &Airdrop{
		session:  sess,
		notifier: notifier,
		maxHint:  maxHint,
		logger:   logger,
		metrics:  m,
	}
}

// SetAmount stores the amount input, e.g. after a quick-select.
func (a *Airdrop) SetAmount(amount string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.amount = amount
}

// CanSubmit reports whether amount could be submitted right now.
func (a *Airdrop) CanSubmit(amount string) bool {
	if !a.session.State().Connected {
		return false
	}
	_, err := solana.ParseSOL(amount)
	return err == nil
}

// View returns the page state.
func (a *Airdrop) View() AirdropView {
	a.mu.Lock()
	amount, status := a.amount, a.status
	a.mu.Unlock()

	return AirdropView{
		Amount:       amount,
		Status:       status,
		QuickAmounts: AirdropQuickAmounts,
		MaxHint:      a.maxHint,
		Connected:    a.session.State().Connected,
		CanSubmit:    a.CanSubmit(amount),
	}
}

// Request submits one airdrop of amount SOL to the connected account.
// Nothing is retried; on failure the amount input is kept.
func (a *Airdrop) Request(ctx context.Context, amount string) (*AirdropResult, error) {
	amount = strings.TrimSpace(amount)
	a.SetAmount(amount)

	pub, err := a.session.PublicKey()
	if err != nil {
		return nil, a.fail(ctx, MsgConnectWallet, "", err)
	}

	sol, err := solana.ParseSOL(amount)
	if err != nil {
		return nil, a.fail(ctx, MsgInvalidAmount, pub.String(), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	lamports, err := solana.SOLToLamports(sol)
	if err != nil {
		return nil, a.fail(ctx, MsgInvalidAmount, pub.String(), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	sig, err := a.session.Connection().RequestAirdrop(ctx, pub, lamports)
	if err != nil {
		a.metrics.RecordAirdrop("error", lamports)
		a.logger.ErrorContext(ctx, "airdrop failed",
			"account", pub.String(),
			"lamports", lamports,
			"error", err,
		)
		return nil, a.fail(ctx, MsgAirdropFailed, pub.String(), err)
	}
	a.metrics.RecordAirdrop("success", lamports)

	msg := fmt.Sprintf("Successfully airdropped %s SOL to your wallet!", sol.String())

	a.mu.Lock()
	a.amount = ""
	a.status = successStatus(msg)
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "airdrop requested",
		"account", pub.String(),
		"lamports", lamports,
		"signature", sig.String(),
	)
	publish(ctx, a.notifier, a.logger, notify.Success(msg, pub.String()))

	// The navbar balance follows the airdrop; a failed refresh keeps the old value.
	if _, err := a.session.RefreshBalance(ctx); err != nil {
		a.logger.WarnContext(ctx, "failed to refresh balance after airdrop", "error", err)
	}

	return &AirdropResult{
		Signature: sig.String(),
		Amount:    sol,
		Lamports:  lamports,
		Message:   msg,
	}, nil
}

func (a *Airdrop) fail(ctx context.Context, msg, account string, cause error) error {
	a.mu.Lock()
	a.status = errorStatus(msg)
	a.mu.Unlock()

	publish(ctx, a.notifier, a.logger, notify.Error(msg, account))
	return &UserError{Message: msg, Err: cause}
}

