package faucet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/session"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/patrickmn/go-cache"
)

const refreshGateKey = "refresh"

// HistoryOptions configures history fetching.
type HistoryOptions struct {
	Limit        int
	Pacing       time.Duration
	FailureDelay time.Duration
	Cooldown     time.Duration
}

// HistoryView is what the history list renders.
type HistoryView struct {
	Records     []*solana.TransactionRecord
	Loaded      bool
	Loading     bool
	Connected   bool
	Network     string
	LastRefresh time.Time
	Status      Status
}

// History lists recent transactions of the connected account.
type History struct {
	session  *session.Session
	notifier notify.Notifier
	opts     HistoryOptions
	gate     *cache.Cache
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu          sync.RWMutex
	account     string
	records     []*solana.TransactionRecord
	loaded      bool
	loading     bool
	lastRefresh time.Time
	status      Status
}

// NewHistory creates the history flow.
func NewHistory(sess *session.Session, notifier notify.Notifier, opts HistoryOptions, m *metrics.Metrics, logger *slog.Logger) *History {
	return &History{
		session:  sess,
		notifier: notifier,
		opts:     opts,
		gate:     cache.New(opts.Cooldown, time.Minute),
		logger:   logger,
		metrics:  m,
	}
}

// Refresh fetches the recent transactions of the connected account and keeps them
// for rendering. A refresh within the cooldown of the last accepted one is rejected
// with ErrCooldown and issues no RPC call.
func (h *History) Refresh(ctx context.Context) ([]*solana.TransactionRecord, error) {
	pub, err := h.session.PublicKey()
	if err != nil {
		publish(ctx, h.notifier, h.logger, notify.Error(MsgConnectWallet, ""))
		return nil, &UserError{Message: MsgConnectWallet, Err: err}
	}

	if h.opts.Cooldown > 0 {
		if err := h.gate.Add(refreshGateKey, struct{}{}, h.opts.Cooldown); err != nil {
			h.metrics.RecordHistoryRefresh("cooldown", 0)
			h.setStatus(errorStatus(MsgRefreshCooldown))
			publish(ctx, h.notifier, h.logger, notify.Error(MsgRefreshCooldown, pub.String()))
			return nil, &UserError{Message: MsgRefreshCooldown, Err: ErrCooldown}
		}
	}

	h.mu.Lock()
	h.loading = true
	h.lastRefresh = time.Now()
	h.mu.Unlock()

	start := time.Now()
	records, err := h.session.Connection().GetRecentTransactions(ctx, solana.GetRecentTransactionsParams{
		Account:      pub,
		Limit:        h.opts.Limit,
		Pacing:       h.opts.Pacing,
		FailureDelay: h.opts.FailureDelay,
	})

	h.mu.Lock()
	h.loading = false
	if err == nil {
		h.account = pub.String()
		h.records = records
		h.loaded = true
		h.status = Status{}
	} else {
		h.status = errorStatus(MsgHistoryFailed)
	}
	h.mu.Unlock()

	if err != nil {
		h.metrics.RecordHistoryRefresh("error", time.Since(start).Seconds())
		h.logger.ErrorContext(ctx, "failed to fetch transactions",
			"account", pub.String(),
			"error", err,
		)
		publish(ctx, h.notifier, h.logger, notify.Error(MsgHistoryFailed, pub.String()))
		return nil, &UserError{Message: MsgHistoryFailed, Err: err}
	}
	h.metrics.RecordHistoryRefresh("success", time.Since(start).Seconds())

	return records, nil
}

// EnsureLoaded fetches history once for a newly connected account. Later calls are
// no-ops until the account changes.
func (h *History) EnsureLoaded(ctx context.Context) error {
	pub, err := h.session.PublicKey()
	if err != nil {
		return nil
	}

	h.mu.RLock()
	fresh := h.loaded && h.account == pub.String()
	loading := h.loading
	h.mu.RUnlock()
	if fresh || loading {
		return nil
	}

	_, err = h.Refresh(ctx)
	if errors.Is(err, ErrCooldown) {
		return nil
	}
	return err
}

// Records returns the last fetched records of the connected account.
func (h *History) Records() []*solana.TransactionRecord {
	return h.View().Records
}

// View returns the history state. Records of a previously connected account are not shown.
func (h *History) View() HistoryView {
	st := h.session.State()

	h.mu.RLock()
	defer h.mu.RUnlock()

	view := HistoryView{
		Loading:     h.loading,
		Connected:   st.Connected,
		Network:     st.Network,
		LastRefresh: h.lastRefresh,
		Status:      h.status,
	}
	if st.Connected && h.loaded && h.account == st.PublicKey {
		view.Records = append([]*solana.TransactionRecord(nil), h.records...)
		view.Loaded = true
	}
	return view
}

func (h *History) setStatus(st Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = st
}
