package solana

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status values rendered for a transaction record.
const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// UnknownAddress is shown when no account in a transaction gained balance.
const UnknownAddress = "Unknown"

// TransactionRecord is a display-only view of a transaction, reconstructed from
// the balance deltas the RPC endpoint reports. It is derived freshly on every
// history fetch and never persisted.
type TransactionRecord struct {
	Signature string          `json:"signature"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"` // SOL, not lamports
	Status    string          `json:"status"`
	Timestamp int64           `json:"timestamp"` // unix seconds
}

// Time returns the record timestamp as a time.Time.
func (r *TransactionRecord) Time() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// Succeeded reports whether the transaction executed without error.
func (r *TransactionRecord) Succeeded() bool {
	return r.Status == StatusSuccess
}
