package faucet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/session"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/brojonat/solsplash/service/validator"
	"github.com/brojonat/solsplash/service/wallet"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// TransferQuickAmounts are the preset transfer amounts in SOL.
var TransferQuickAmounts = []string{"0.1", "0.5", "1", "2"}

// EstimatedFee is the flat network fee shown in the transfer summary.
var EstimatedFee = decimal.RequireFromString("0.000005")

// TransferDraft is the transfer form. The recipient check is a loose shape
// heuristic, not a checksum.
type TransferDraft struct {
	Recipient string `json:"recipient" validate:"required,min=32,max=44,alphanum"`
	Amount    string `json:"amount" validate:"required,positive_decimal"`
}

func (d TransferDraft) normalized() TransferDraft {
	return TransferDraft{
		Recipient: strings.TrimSpace(d.Recipient),
		Amount:    strings.TrimSpace(d.Amount),
	}
}

// Validate checks the draft and returns a *UserError carrying the message to show.
// Missing fields are reported before a malformed recipient, which is reported
// before a malformed amount.
func (d TransferDraft) Validate() error {
	d = d.normalized()

	if err := validator.Validate(d); err != nil {
		fields := validator.FieldErrors(err)
		for _, f := range fields {
			if f.Tag == "required" {
				return &UserError{Message: MsgRequiredFields, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
			}
		}
		for _, f := range fields {
			if f.Field == "Recipient" {
				return &UserError{Message: MsgInvalidRecipient, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
			}
		}
		return &UserError{Message: MsgInvalidAmount, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
	}

	if _, err := solana.ParseSOL(d.Amount); err != nil {
		return &UserError{Message: MsgInvalidAmount, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
	}
	return nil
}

// TransferSummary is the preview shown before submitting.
type TransferSummary struct {
	Recipient      string          `json:"recipient"` // shortened
	Amount         decimal.Decimal `json:"amount"`
	EstimatedFee   decimal.Decimal `json:"estimated_fee"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
}

// Summary previews the draft. It returns false until the draft has a recipient and a
// valid amount.
func (d TransferDraft) Summary() (TransferSummary, bool) {
	d = d.normalized()
	if d.Recipient == "" {
		return TransferSummary{}, false
	}
	amount, err := solana.ParseSOL(d.Amount)
	if err != nil {
		return TransferSummary{}, false
	}
	return TransferSummary{
		Recipient:      solana.ShortAddress(d.Recipient),
		Amount:         amount,
		EstimatedFee:   EstimatedFee,
		EstimatedTotal: amount.Add(EstimatedFee),
	}, true
}

// TransferResult is the outcome of a successful transfer.
type TransferResult struct {
	Signature   string `json:"signature"`
	ExplorerURL string `json:"explorer_url"`
	Message     string `json:"message"`
}

// TransferView is what the transfer form renders.
type TransferView struct {
	Draft        TransferDraft
	Summary      TransferSummary
	HasSummary   bool
	Status       Status
	QuickAmounts []string
	Connected    bool
	CanSubmit    bool
}

// Transfer sends SOL from the connected account and schedules a history refresh.
type Transfer struct {
	session      *session.Session
	history      *History
	notifier     notify.Notifier
	refreshDelay time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics

	mu      sync.Mutex
	draft   TransferDraft
	status  Status
	pending map[*time.Timer]struct{}
	closed  bool
}

// NewTransfer creates the transfer flow. After each successful transfer, history is
// refreshed once refreshDelay has passed; the delay is a blind wait, not a confirmation.
func NewTransfer(sess *session.Session, history *History, notifier notify.Notifier, refreshDelay time.Duration, m *metrics.Metrics, logger *slog.Logger) *Transfer {
	return &Transfer{
		session:      sess,
		history:      history,
		notifier:     notifier,
		refreshDelay: refreshDelay,
		logger:       logger,
		metrics:      m,
		pending:      make(map[*time.Timer]struct{}),
	}
}

// SetDraft stores the form inputs.
func (t *Transfer) SetDraft(d TransferDraft) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = d
}

// CanSubmit reports whether d could be submitted right now.
func (t *Transfer) CanSubmit(d TransferDraft) bool {
	return t.session.State().Connected && d.Validate() == nil
}

// View returns the form state.
func (t *Transfer) View() TransferView {
	t.mu.Lock()
	draft, status := t.draft, t.status
	t.mu.Unlock()

	summary, ok := draft.Summary()
	return TransferView{
		Draft:        draft,
		Summary:      summary,
		HasSummary:   ok,
		Status:       status,
		QuickAmounts: TransferQuickAmounts,
		Connected:    t.session.State().Connected,
		CanSubmit:    t.CanSubmit(draft),
	}
}

// Submit validates the draft, then signs and broadcasts one System Program transfer.
// There is no duplicate guard: submitting the same draft twice sends twice.
func (t *Transfer) Submit(ctx context.Context, d TransferDraft) (*TransferResult, error) {
	d = d.normalized()
	t.SetDraft(d)

	pub, err := t.session.PublicKey()
	if err != nil {
		return nil, t.fail(ctx, MsgConnectWallet, "", err)
	}

	if err := d.Validate(); err != nil {
		return nil, t.fail(ctx, UserMessage(err, MsgInvalidAmount), pub.String(), err)
	}

	recipient, err := solanago.PublicKeyFromBase58(d.Recipient)
	if err != nil {
		return nil, t.fail(ctx, MsgInvalidRecipient, pub.String(), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	amount, err := solana.ParseSOL(d.Amount)
	if err != nil {
		return nil, t.fail(ctx, MsgInvalidAmount, pub.String(), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	lamports, err := solana.SOLToLamports(amount)
	if err != nil {
		return nil, t.fail(ctx, MsgInvalidAmount, pub.String(), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	instruction, err := solana.NewTransferInstruction(pub, recipient, lamports)
	if err != nil {
		return nil, t.fail(ctx, MsgInvalidAmount, pub.String(), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	sig, err := t.session.SendTransaction(ctx, instruction)
	if err != nil {
		t.metrics.RecordTransfer("error")
		t.logger.ErrorContext(ctx, "transfer failed",
			"from", pub.String(),
			"to", recipient.String(),
			"lamports", lamports,
			"error", err,
		)
		if errors.Is(err, wallet.ErrNotConnected) {
			return nil, t.fail(ctx, MsgConnectWallet, "", err)
		}
		return nil, t.fail(ctx, MsgTransferFailed, pub.String(), err)
	}
	t.metrics.RecordTransfer("success")

	t.mu.Lock()
	t.draft = TransferDraft{}
	t.status = successStatus(MsgTransferSent)
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "transfer sent",
		"from", pub.String(),
		"to", recipient.String(),
		"lamports", lamports,
		"signature", sig.String(),
	)
	publish(ctx, t.notifier, t.logger, notify.Success(MsgTransferSent, pub.String()))
	t.scheduleRefresh()

	return &TransferResult{
		Signature:   sig.String(),
		ExplorerURL: solana.ExplorerURL(sig.String(), t.session.Network()),
		Message:     MsgTransferSent,
	}, nil
}

// scheduleRefresh refreshes history and balance after the refresh delay.
func (t *Transfer) scheduleRefresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.history == nil {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(t.refreshDelay, func() {
		t.mu.Lock()
		delete(t.pending, timer)
		t.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := t.session.RefreshBalance(ctx); err != nil {
			t.logger.WarnContext(ctx, "failed to refresh balance after transfer", "error", err)
		}
		if _, err := t.history.Refresh(ctx); err != nil {
			t.logger.WarnContext(ctx, "scheduled history refresh failed", "error", err)
		}
	})
	t.pending[timer] = struct{}{}
}

// Close cancels refreshes that have not started yet.
func (t *Transfer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for timer := range t.pending {
		timer.Stop()
		delete(t.pending, timer)
	}
}

func (t *Transfer) fail(ctx context.Context, msg, account string, cause error) error {
	t.mu.Lock()
	t.status = errorStatus(msg)
	t.mu.Unlock()

	publish(ctx, t.notifier, t.logger, notify.Error(msg, account))
	return &UserError{Message: msg, Err: cause}
}
