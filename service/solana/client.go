package solana

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)

	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error)

	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)

	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)

	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Client is the connection to a Solana test cluster.
// It wraps the RPC client with the operations the faucet pages need.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // cluster name used for metrics and explorer links (e.g. "devnet")
}

// NewClient creates a new Solana client.
// The endpoint parameter names the cluster (e.g. "devnet") for metrics labeling.
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// Endpoint returns the cluster name this client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// GetBalance returns the balance of an account in lamports.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	start := time.Now()
	lamports, err := c.rpc.GetBalance(ctx, account)
	c.record("GetBalance", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return lamports, nil
}

// RequestAirdrop asks the cluster faucet to fund an account.
func (c *Client) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.RequestAirdrop(ctx, account, lamports)
	c.record("RequestAirdrop", start, err)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to request airdrop: %w", err)
	}
	return sig, nil
}

// LatestBlockhash returns a recent blockhash for building transactions.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	start := time.Now()
	hash, err := c.rpc.GetLatestBlockhash(ctx)
	c.record("GetLatestBlockhash", start, err)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return hash, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.SendTransaction(ctx, tx)
	c.record("SendTransaction", start, err)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// GetRecentTransactionsParams contains parameters for fetching transaction history.
type GetRecentTransactionsParams struct {
	Account solana.PublicKey
	Limit   int

	// Pacing is the minimum spacing between per-transaction lookups.
	Pacing time.Duration

	// FailureDelay is an extra wait after a lookup fails.
	FailureDelay time.Duration
}

// GetRecentTransactions fetches up to Limit recent signatures for the account and then
// looks up each transaction sequentially, paced to stay under public RPC rate limits.
// Returns records in the order the endpoint reports them (newest first).
//
// A lookup that fails is logged and left out; the remaining lookups continue.
// Only a failure to list signatures fails the whole call.
func (c *Client) GetRecentTransactions(ctx context.Context, params GetRecentTransactionsParams) ([]*TransactionRecord, error) {
	limit := params.Limit
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit: &limit,
	}

	c.logger.DebugContext(ctx, "calling GetSignaturesForAddress",
		"account", params.Account.String(),
		"limit", params.Limit,
	)

	start := time.Now()
	signatures, err := c.rpc.GetSignaturesForAddress(ctx, params.Account, opts)
	c.record("GetSignaturesForAddress", start, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get signatures",
			"account", params.Account.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	c.logger.DebugContext(ctx, "fetched transaction signatures",
		"account", params.Account.String(),
		"count", len(signatures),
	)

	// Naive fixed pacing, not adaptive backoff.
	limiter := rate.NewLimiter(rate.Every(params.Pacing), 1)

	records := make([]*TransactionRecord, 0, len(signatures))
	for _, sig := range signatures {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		txnOpts := &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			MaxSupportedTransactionVersion: &[]uint64{0}[0],
		}
		txnStart := time.Now()
		result, err := c.rpc.GetTransaction(ctx, sig.Signature, txnOpts)
		c.record("GetTransaction", txnStart, err)

		if err != nil {
			c.logger.WarnContext(ctx, "failed to get transaction, skipping",
				"signature", sig.Signature.String(),
				"error", err,
			)
			c.metrics.RecordHistoryLookup("error")
			if err := sleep(ctx, params.FailureDelay); err != nil {
				return nil, err
			}
			continue
		}

		record, err := DecodeBalanceDeltas(sig, result, params.Account)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to decode transaction, skipping",
				"signature", sig.Signature.String(),
				"error", err,
			)
			c.metrics.RecordHistoryLookup("error")
			continue
		}
		if record == nil {
			c.logger.DebugContext(ctx, "transaction has no decodable details, skipping",
				"signature", sig.Signature.String(),
			)
			c.metrics.RecordHistoryLookup("skipped")
			continue
		}

		c.metrics.RecordHistoryLookup("success")
		records = append(records, record)
	}

	c.logger.InfoContext(ctx, "fetched and decoded transactions",
		"account", params.Account.String(),
		"signatures", len(signatures),
		"count", len(records),
	)

	return records, nil
}

func (c *Client) record(method string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, time.Since(start).Seconds())
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
